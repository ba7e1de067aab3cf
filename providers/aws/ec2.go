package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/cloudpillar/cloudpillar/types"
)

// probeEC2 inventories EC2 instances
func (p *Provider) probeEC2(ctx context.Context) (types.ServiceSummary, error) {
	var instances []map[string]any
	byState := map[string]int{}

	paginator := ec2.NewDescribeInstancesPaginator(p.ec2Client, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}

		for _, reservation := range output.Reservations {
			for _, instance := range reservation.Instances {
				state := "unknown"
				if instance.State != nil {
					state = string(instance.State.Name)
				}
				byState[state]++

				monitoring := "disabled"
				if instance.Monitoring != nil {
					monitoring = string(instance.Monitoring.State)
				}

				instances = append(instances, map[string]any{
					"instance_id":   aws.ToString(instance.InstanceId),
					"instance_type": string(instance.InstanceType),
					"state":         state,
					"monitoring":    monitoring,
					"public_ip":     aws.ToString(instance.PublicIpAddress),
				})
			}
		}
	}

	return types.ServiceSummary{
		Count: len(instances),
		Metadata: map[string]any{
			"instances": instances,
			"by_state":  byState,
		},
	}, nil
}

// probeVPC inventories VPCs and security groups
func (p *Provider) probeVPC(ctx context.Context) (types.ServiceSummary, error) {
	vpcs, err := p.ec2Client.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{})
	if err != nil {
		return types.ServiceSummary{}, classify(err)
	}

	groupCount := 0
	openGroups := 0
	paginator := ec2.NewDescribeSecurityGroupsPaginator(p.ec2Client, &ec2.DescribeSecurityGroupsInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}
		groupCount += len(output.SecurityGroups)

		for _, group := range output.SecurityGroups {
			for _, perm := range group.IpPermissions {
				if hasOpenIngress(perm.IpRanges) {
					openGroups++
					break
				}
			}
		}
	}

	return types.ServiceSummary{
		Count: len(vpcs.Vpcs),
		Metadata: map[string]any{
			"security_groups":      groupCount,
			"open_security_groups": openGroups,
		},
	}, nil
}

// hasOpenIngress reports whether any range allows the whole internet in.
func hasOpenIngress(ranges []ec2types.IpRange) bool {
	for _, r := range ranges {
		if aws.ToString(r.CidrIp) == "0.0.0.0/0" {
			return true
		}
	}
	return false
}
