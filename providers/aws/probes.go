package aws

import (
	"context"

	"github.com/cloudpillar/cloudpillar/providers"
	"github.com/cloudpillar/cloudpillar/types"
)

// probe binds a service name to one inventory query on the provider.
type probe struct {
	service string
	run     func(ctx context.Context) (types.ServiceSummary, error)
}

func (p probe) Service() string { return p.service }

func (p probe) Run(ctx context.Context) (types.ServiceSummary, error) {
	return p.run(ctx)
}

// Probes returns every probe to run in this region. Account-global
// services are probed only from GlobalRegion so they appear exactly
// once per scan.
func (p *Provider) Probes() []providers.Probe {
	probes := []providers.Probe{
		probe{"ec2", p.probeEC2},
		probe{"autoscaling", p.probeAutoScaling},
		probe{"vpc", p.probeVPC},
		probe{"elb", p.probeLoadBalancers},
		probe{"rds", p.probeRDS},
		probe{"redshift", p.probeRedshift},
		probe{"memorydb", p.probeMemoryDB},
		probe{"dynamodb", p.probeDynamoDB},
		probe{"sqs", p.probeSQS},
		probe{"lambda", p.probeLambda},
		probe{"eks", p.probeEKS},
		probe{"ecs", p.probeECS},
		probe{"ecr", p.probeECR},
		probe{"cloudwatch", p.probeCloudWatch},
		probe{"logs", p.probeLogGroups},
		probe{"cloudtrail", p.probeCloudTrail},
		probe{"kms", p.probeKMS},
	}

	if p.region == GlobalRegion {
		probes = append(probes,
			probe{"s3", p.probeS3},
			probe{"iam", p.probeIAM},
			probe{"route53", p.probeRoute53},
		)
	}

	return probes
}
