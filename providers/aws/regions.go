package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// ListEnabledRegions discovers every region enabled for the account.
// Discovery always goes through us-east-1 since it exists in every
// partition the scanner supports.
func ListEnabledRegions(ctx context.Context, credentials aws.CredentialsProvider) ([]string, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(GlobalRegion),
	}
	if credentials != nil {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for region discovery: %w", err)
	}

	client := ec2.NewFromConfig(cfg)
	output, err := client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to discover enabled regions: %w", err)
	}

	regions := make([]string, 0, len(output.Regions))
	for _, region := range output.Regions {
		regions = append(regions, aws.ToString(region.RegionName))
	}
	sort.Strings(regions)

	return regions, nil
}
