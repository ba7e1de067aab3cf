package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"

	"github.com/cloudpillar/cloudpillar/types"
)

// probeCloudWatch inventories CloudWatch metric alarms
func (p *Provider) probeCloudWatch(ctx context.Context) (types.ServiceSummary, error) {
	count := 0
	inAlarm := 0

	paginator := cloudwatch.NewDescribeAlarmsPaginator(p.cloudwatchClient, &cloudwatch.DescribeAlarmsInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}

		count += len(output.MetricAlarms)
		for _, alarm := range output.MetricAlarms {
			if alarm.StateValue == "ALARM" {
				inAlarm++
			}
		}
	}

	return types.ServiceSummary{
		Count: count,
		Metadata: map[string]any{
			"in_alarm": inAlarm,
		},
	}, nil
}

// probeLogGroups inventories CloudWatch log groups
func (p *Provider) probeLogGroups(ctx context.Context) (types.ServiceSummary, error) {
	count := 0
	noRetention := 0

	paginator := cloudwatchlogs.NewDescribeLogGroupsPaginator(p.logsClient, &cloudwatchlogs.DescribeLogGroupsInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}

		count += len(output.LogGroups)
		for _, group := range output.LogGroups {
			if group.RetentionInDays == nil {
				noRetention++
			}
		}
	}

	return types.ServiceSummary{
		Count: count,
		Metadata: map[string]any{
			"no_retention": noRetention,
		},
	}, nil
}
