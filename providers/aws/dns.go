package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/route53"

	"github.com/cloudpillar/cloudpillar/types"
)

// probeRoute53 inventories hosted zones. Route53 is a global service,
// so this probe runs once from us-east-1.
func (p *Provider) probeRoute53(ctx context.Context) (types.ServiceSummary, error) {
	count := 0
	private := 0

	paginator := route53.NewListHostedZonesPaginator(p.route53Client, &route53.ListHostedZonesInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}

		count += len(output.HostedZones)
		for _, zone := range output.HostedZones {
			if zone.Config != nil && zone.Config.PrivateZone {
				private++
			}
		}
	}

	return types.ServiceSummary{
		Count: count,
		Metadata: map[string]any{
			"private_zones": private,
		},
	}, nil
}
