// Package providers defines the contracts between scan execution and the
// cloud account being inventoried.
package providers

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/cloudpillar/cloudpillar/types"
)

// Probe performs one read-only inventory query against one service in one
// region. Failures come back as types.ProbeError values, never panics.
type Probe interface {
	// Service is the short name keyed into RegionResult.Services.
	Service() string
	// Run executes the inventory call.
	Run(ctx context.Context) (types.ServiceSummary, error)
}

// RegionProvider gives probe access to one region of the target account.
type RegionProvider interface {
	Region() string

	// CheckAccess verifies the account is reachable from this region at
	// all. A failure here escalates to a region-level error rather than
	// per-probe failures.
	CheckAccess(ctx context.Context) error

	// Probes returns the fixed probe set for this region.
	Probes() []Probe
}

// Factory creates a RegionProvider for one region using resolved
// credentials. A nil credentials provider means the ambient default chain.
type Factory func(ctx context.Context, region string, credentials aws.CredentialsProvider) (RegionProvider, error)

// RegionLister discovers the enabled regions of the target account.
type RegionLister func(ctx context.Context, credentials aws.CredentialsProvider) ([]string, error)
