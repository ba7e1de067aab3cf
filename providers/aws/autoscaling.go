package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"

	"github.com/cloudpillar/cloudpillar/types"
)

// probeAutoScaling inventories Auto Scaling groups
func (p *Provider) probeAutoScaling(ctx context.Context) (types.ServiceSummary, error) {
	count := 0
	desired := 0

	paginator := autoscaling.NewDescribeAutoScalingGroupsPaginator(p.asgClient, &autoscaling.DescribeAutoScalingGroupsInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}

		count += len(output.AutoScalingGroups)
		for _, group := range output.AutoScalingGroups {
			desired += int(aws.ToInt32(group.DesiredCapacity))
		}
	}

	return types.ServiceSummary{
		Count: count,
		Metadata: map[string]any{
			"desired_capacity": desired,
		},
	}, nil
}
