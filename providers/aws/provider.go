// Package aws implements resource probes over the AWS SDK. Each probe is a
// single read-only inventory query; all SDK failures are classified into
// typed probe errors so one failing service cannot poison a region scan.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/memorydb"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// GlobalRegion is where account-global services (S3 bucket listing, IAM,
// Route 53) are probed exactly once per scan.
const GlobalRegion = "us-east-1"

// Provider implements providers.RegionProvider over the AWS SDK.
type Provider struct {
	region string

	ec2Client        *ec2.Client
	asgClient        *autoscaling.Client
	elbClient        *elasticloadbalancingv2.Client
	rdsClient        *rds.Client
	redshiftClient   *redshift.Client
	memorydbClient   *memorydb.Client
	dynamoClient     *dynamodb.Client
	sqsClient        *sqs.Client
	lambdaClient     *lambda.Client
	eksClient        *eks.Client
	ecsClient        *ecs.Client
	ecrClient        *ecr.Client
	cloudwatchClient *cloudwatch.Client
	logsClient       *cloudwatchlogs.Client
	cloudtrailClient *cloudtrail.Client
	kmsClient        *kms.Client
	s3Client         *s3.Client
	iamClient        *iam.Client
	route53Client    *route53.Client
	stsClient        *sts.Client
}

// NewProvider creates a probe provider for one region of the target
// account. A nil credentials provider falls back to the default chain.
func NewProvider(ctx context.Context, region string, credentials aws.CredentialsProvider) (*Provider, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if credentials != nil {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for %s: %w", region, err)
	}

	return &Provider{
		region:           region,
		ec2Client:        ec2.NewFromConfig(cfg),
		asgClient:        autoscaling.NewFromConfig(cfg),
		elbClient:        elasticloadbalancingv2.NewFromConfig(cfg),
		rdsClient:        rds.NewFromConfig(cfg),
		redshiftClient:   redshift.NewFromConfig(cfg),
		memorydbClient:   memorydb.NewFromConfig(cfg),
		dynamoClient:     dynamodb.NewFromConfig(cfg),
		sqsClient:        sqs.NewFromConfig(cfg),
		lambdaClient:     lambda.NewFromConfig(cfg),
		eksClient:        eks.NewFromConfig(cfg),
		ecsClient:        ecs.NewFromConfig(cfg),
		ecrClient:        ecr.NewFromConfig(cfg),
		cloudwatchClient: cloudwatch.NewFromConfig(cfg),
		logsClient:       cloudwatchlogs.NewFromConfig(cfg),
		cloudtrailClient: cloudtrail.NewFromConfig(cfg),
		kmsClient:        kms.NewFromConfig(cfg),
		s3Client:         s3.NewFromConfig(cfg),
		iamClient:        iam.NewFromConfig(cfg),
		route53Client:    route53.NewFromConfig(cfg),
		stsClient:        sts.NewFromConfig(cfg),
	}, nil
}

// Region returns the region this provider probes.
func (p *Provider) Region() string {
	return p.region
}

// CheckAccess verifies the account is reachable from this region. STS
// GetCallerIdentity works with any valid credential and no permissions.
func (p *Provider) CheckAccess(ctx context.Context) error {
	_, err := p.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("caller identity check failed in %s: %w", p.region, err)
	}
	return nil
}
