package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidScan marks a scan request rejected by validation, as opposed
// to infrastructure failures while creating the record.
var ErrInvalidScan = errors.New("invalid scan")

// Status represents the lifecycle state of a scan.
type Status string

const (
	// StatusPending means the scan record exists but execution has not started.
	StatusPending Status = "pending"
	// StatusRunning means the scan is actively probing regions.
	StatusRunning Status = "running"
	// StatusCompleted means all regions finished and results are available.
	StatusCompleted Status = "completed"
	// StatusFailed means the scan produced no usable result set.
	StatusFailed Status = "failed"
)

// IsValid checks if the status is a known status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true for final states that never transition further.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether the state machine allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusFailed
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Scan is one end-to-end inventory-and-recommend workflow for one account.
type Scan struct {
	ID           string `json:"id"`
	OwnerID      string `json:"owner_id"`
	Name         string `json:"name"`
	CredentialID string `json:"credential_id"`

	// Regions requested at creation. Empty means discover all enabled regions.
	Regions []string `json:"regions,omitempty"`

	Status   Status `json:"status"`
	Progress int    `json:"progress"`

	// RegionsScanned is append-on-completion order, not a fixed region order.
	RegionsScanned []string                `json:"regions_scanned"`
	Results        map[string]RegionResult `json:"results,omitempty"`

	Recommendation string `json:"recommendation,omitempty"`
	Warning        string `json:"warning,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewScan creates a pending scan for the given owner.
func NewScan(ownerID, name, credentialID string, regions []string) (*Scan, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrInvalidScan)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: scan name is required", ErrInvalidScan)
	}
	if credentialID == "" {
		return nil, fmt.Errorf("%w: credential id is required", ErrInvalidScan)
	}

	now := time.Now().UTC()
	return &Scan{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Name:           name,
		CredentialID:   credentialID,
		Regions:        regions,
		Status:         StatusPending,
		Progress:       0,
		RegionsScanned: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsTerminal reports whether the scan reached a final state.
func (s *Scan) IsTerminal() bool {
	return s.Status.IsTerminal()
}
