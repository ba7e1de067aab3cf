package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/cloudpillar/cloudpillar/types"
)

// probeS3 inventories S3 buckets with encryption and versioning posture.
// The bucket namespace is global, so this probe runs once from us-east-1.
func (p *Provider) probeS3(ctx context.Context) (types.ServiceSummary, error) {
	output, err := p.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return types.ServiceSummary{}, classify(err)
	}

	buckets := make([]map[string]any, 0, len(output.Buckets))
	unencrypted := 0
	unversioned := 0

	for _, bucket := range output.Buckets {
		name := aws.ToString(bucket.Name)

		encrypted := true
		if _, err := p.s3Client.GetBucketEncryption(ctx, &s3.GetBucketEncryptionInput{
			Bucket: bucket.Name,
		}); err != nil {
			// absent server-side encryption config returns an error
			encrypted = false
			unencrypted++
		}

		versioned := false
		if ver, err := p.s3Client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{
			Bucket: bucket.Name,
		}); err == nil && ver.Status == s3types.BucketVersioningStatusEnabled {
			versioned = true
		}
		if !versioned {
			unversioned++
		}

		buckets = append(buckets, map[string]any{
			"name":      name,
			"encrypted": encrypted,
			"versioned": versioned,
		})
	}

	return types.ServiceSummary{
		Count: len(output.Buckets),
		Metadata: map[string]any{
			"buckets":     buckets,
			"unencrypted": unencrypted,
			"unversioned": unversioned,
		},
	}, nil
}
