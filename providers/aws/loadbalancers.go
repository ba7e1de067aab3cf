package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"

	"github.com/cloudpillar/cloudpillar/types"
)

// probeLoadBalancers inventories ELBv2 load balancers
func (p *Provider) probeLoadBalancers(ctx context.Context) (types.ServiceSummary, error) {
	count := 0
	byType := map[string]int{}

	paginator := elasticloadbalancingv2.NewDescribeLoadBalancersPaginator(p.elbClient, &elasticloadbalancingv2.DescribeLoadBalancersInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}

		count += len(output.LoadBalancers)
		for _, lb := range output.LoadBalancers {
			byType[string(lb.Type)]++
		}
	}

	return types.ServiceSummary{
		Count: count,
		Metadata: map[string]any{
			"by_type": byType,
		},
	}, nil
}
