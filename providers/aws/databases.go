package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/memorydb"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/redshift"

	"github.com/cloudpillar/cloudpillar/types"
)

// probeRDS inventories RDS database instances
func (p *Provider) probeRDS(ctx context.Context) (types.ServiceSummary, error) {
	var databases []map[string]any
	unencrypted := 0

	paginator := rds.NewDescribeDBInstancesPaginator(p.rdsClient, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}

		for _, db := range output.DBInstances {
			if !aws.ToBool(db.StorageEncrypted) {
				unencrypted++
			}
			databases = append(databases, map[string]any{
				"identifier":       aws.ToString(db.DBInstanceIdentifier),
				"engine":           aws.ToString(db.Engine),
				"instance_class":   aws.ToString(db.DBInstanceClass),
				"multi_az":         aws.ToBool(db.MultiAZ),
				"encrypted":        aws.ToBool(db.StorageEncrypted),
				"backup_retention": int(aws.ToInt32(db.BackupRetentionPeriod)),
			})
		}
	}

	return types.ServiceSummary{
		Count: len(databases),
		Metadata: map[string]any{
			"databases":   databases,
			"unencrypted": unencrypted,
		},
	}, nil
}

// probeRedshift inventories Redshift clusters
func (p *Provider) probeRedshift(ctx context.Context) (types.ServiceSummary, error) {
	count := 0
	encrypted := 0

	paginator := redshift.NewDescribeClustersPaginator(p.redshiftClient, &redshift.DescribeClustersInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}

		count += len(output.Clusters)
		for _, cluster := range output.Clusters {
			if aws.ToBool(cluster.Encrypted) {
				encrypted++
			}
		}
	}

	return types.ServiceSummary{
		Count: count,
		Metadata: map[string]any{
			"encrypted": encrypted,
		},
	}, nil
}

// probeMemoryDB inventories MemoryDB clusters
func (p *Provider) probeMemoryDB(ctx context.Context) (types.ServiceSummary, error) {
	count := 0

	input := &memorydb.DescribeClustersInput{}
	for {
		output, err := p.memorydbClient.DescribeClusters(ctx, input)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}

		count += len(output.Clusters)
		if output.NextToken == nil {
			break
		}
		input.NextToken = output.NextToken
	}

	return types.ServiceSummary{Count: count}, nil
}
