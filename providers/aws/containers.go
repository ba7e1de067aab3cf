package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/eks"

	"github.com/cloudpillar/cloudpillar/types"
)

// probeEKS inventories EKS clusters
func (p *Provider) probeEKS(ctx context.Context) (types.ServiceSummary, error) {
	var clusters []string

	paginator := eks.NewListClustersPaginator(p.eksClient, &eks.ListClustersInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}
		clusters = append(clusters, output.Clusters...)
	}

	return types.ServiceSummary{
		Count: len(clusters),
		Metadata: map[string]any{
			"clusters": clusters,
		},
	}, nil
}

// probeECS inventories ECS clusters
func (p *Provider) probeECS(ctx context.Context) (types.ServiceSummary, error) {
	count := 0

	paginator := ecs.NewListClustersPaginator(p.ecsClient, &ecs.ListClustersInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}
		count += len(output.ClusterArns)
	}

	return types.ServiceSummary{Count: count}, nil
}

// probeECR inventories ECR repositories
func (p *Provider) probeECR(ctx context.Context) (types.ServiceSummary, error) {
	count := 0
	scanOnPush := 0

	paginator := ecr.NewDescribeRepositoriesPaginator(p.ecrClient, &ecr.DescribeRepositoriesInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}

		count += len(output.Repositories)
		for _, repo := range output.Repositories {
			if repo.ImageScanningConfiguration != nil && repo.ImageScanningConfiguration.ScanOnPush {
				scanOnPush++
			}
		}
	}

	return types.ServiceSummary{
		Count: count,
		Metadata: map[string]any{
			"scan_on_push": scanOnPush,
		},
	}, nil
}
