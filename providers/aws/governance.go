package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"github.com/cloudpillar/cloudpillar/types"
)

// probeCloudTrail inventories CloudTrail trails
func (p *Provider) probeCloudTrail(ctx context.Context) (types.ServiceSummary, error) {
	output, err := p.cloudtrailClient.DescribeTrails(ctx, &cloudtrail.DescribeTrailsInput{})
	if err != nil {
		return types.ServiceSummary{}, classify(err)
	}

	multiRegion := 0
	for _, trail := range output.TrailList {
		if aws.ToBool(trail.IsMultiRegionTrail) {
			multiRegion++
		}
	}

	return types.ServiceSummary{
		Count: len(output.TrailList),
		Metadata: map[string]any{
			"multi_region": multiRegion,
		},
	}, nil
}

// probeKMS inventories customer KMS keys
func (p *Provider) probeKMS(ctx context.Context) (types.ServiceSummary, error) {
	count := 0

	paginator := kms.NewListKeysPaginator(p.kmsClient, &kms.ListKeysInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}
		count += len(output.Keys)
	}

	return types.ServiceSummary{
		Count:    count,
		Metadata: map[string]any{},
	}, nil
}
