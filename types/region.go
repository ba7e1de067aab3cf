package types

import "time"

// ServiceSummary is the normalized result of one resource probe.
type ServiceSummary struct {
	Count    int            `json:"count"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RegionResult is one region's inventory snapshot. A region where every
// probe failed is still a valid result; only Unreachable marks a region
// that could not be scanned at all.
type RegionResult struct {
	Region       string                    `json:"region"`
	Services     map[string]ServiceSummary `json:"services,omitempty"`
	Errors       map[string]ProbeError     `json:"errors,omitempty"`
	Unreachable  bool                      `json:"unreachable,omitempty"`
	ErrorMessage string                    `json:"error_message,omitempty"`
	ScannedAt    time.Time                 `json:"scanned_at"`
	DurationMs   int64                     `json:"duration_ms"`
}

// FailedServices returns the names of probes that recorded a typed failure.
func (r RegionResult) FailedServices() []string {
	if len(r.Errors) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.Errors))
	for name := range r.Errors {
		names = append(names, name)
	}
	return names
}

// Healthy reports whether the region was reachable and no probe failed.
func (r RegionResult) Healthy() bool {
	return !r.Unreachable && len(r.Errors) == 0
}
