// Package recommend turns a finished inventory into advisory text. The
// production implementation asks a Bedrock model for a Well-Architected
// review; callers degrade to a placeholder when the provider fails or
// runs past its deadline.
package recommend

import (
	"context"
	"errors"

	"github.com/cloudpillar/cloudpillar/types"
)

// ErrProvider marks a recommendation failure. Scans still complete when
// this is returned; the recommendation is replaced with a placeholder.
var ErrProvider = errors.New("recommendation provider failed")

// ErrProviderTimeout marks a recommendation that ran past its deadline.
var ErrProviderTimeout = errors.New("recommendation provider timed out")

// Placeholder is stored when the provider could not produce a
// recommendation in time.
const Placeholder = "Recommendations could not be generated for this scan. " +
	"Review the inventory results directly, or re-run the scan to try again."

// TimeoutWarning explains a placeholder caused by a provider deadline.
const TimeoutWarning = "recommendation generation timed out"

// Provider produces a recommendation for a finished scan.
type Provider interface {
	// Recommend analyzes the scan's region results. Implementations must
	// honor ctx cancellation; callers bound the call with a deadline.
	Recommend(ctx context.Context, scan *types.Scan) (string, error)
}

// Static returns a fixed recommendation. Used when no model backend is
// configured, and by tests.
type Static struct {
	Text string
}

func (s Static) Recommend(ctx context.Context, scan *types.Scan) (string, error) {
	return s.Text, nil
}
