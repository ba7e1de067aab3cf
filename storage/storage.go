// Package storage persists scan records. The orchestrator is the only
// writer for a running scan; API handlers read through the same interface.
package storage

import (
	"context"
	"errors"

	"github.com/cloudpillar/cloudpillar/types"
)

// ErrNotFound is returned when a scan does not exist or belongs to
// another owner.
var ErrNotFound = errors.New("scan not found")

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Finalization carries the terminal state written by Finalize.
type Finalization struct {
	Status         types.Status
	Recommendation string
	Warning        string
	ErrorMessage   string
}

// ScanStore is the narrow persistence interface for scan records.
type ScanStore interface {
	// Create writes a new pending scan record.
	Create(ctx context.Context, scan *types.Scan) error

	// Get returns the scan, scoped to its owner.
	Get(ctx context.Context, owner, id string) (*types.Scan, error)

	// List returns the owner's scans, newest first.
	List(ctx context.Context, owner string) ([]*types.Scan, error)

	// MarkRunning transitions a pending scan to running.
	MarkRunning(ctx context.Context, owner, id string) error

	// UpdateProgress persists forward progress for a polling reader.
	UpdateProgress(ctx context.Context, owner, id string, regionsScanned []string, progress int) error

	// AppendRegionResult merges one finished region into the results payload.
	AppendRegionResult(ctx context.Context, owner, id string, result types.RegionResult) error

	// Finalize moves the scan to a terminal state. Returns ErrNotFound when
	// the record was deleted mid-scan; callers treat that as a no-op.
	Finalize(ctx context.Context, owner, id string, fin Finalization) error

	// Delete removes the record. In-flight work is not stopped.
	Delete(ctx context.Context, owner, id string) error
}
