package types

import "fmt"

// ProbeErrorKind classifies probe failures.
type ProbeErrorKind string

const (
	// ProbeErrAuth means the credential was rejected. Not retried.
	ProbeErrAuth ProbeErrorKind = "auth"
	// ProbeErrThrottled means the API rate limit was hit. Retried with backoff.
	ProbeErrThrottled ProbeErrorKind = "throttled"
	// ProbeErrUnavailable means the service returned a server-side failure.
	ProbeErrUnavailable ProbeErrorKind = "unavailable"
	// ProbeErrUnknown covers everything else, including probe timeouts.
	ProbeErrUnknown ProbeErrorKind = "unknown"
)

// ProbeError is the typed failure result of a single resource probe.
// Probes never propagate raw faults; every failure is converted to this
// so one failed probe cannot abort sibling probes.
type ProbeError struct {
	Kind    ProbeErrorKind `json:"kind"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message"`
}

func (e ProbeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Retryable reports whether the probe should be attempted again.
func (e ProbeError) Retryable() bool {
	return e.Kind == ProbeErrThrottled
}

// RegionError marks a region that could not be scanned at all, for example
// when the account is unreachable from that region. It fails the region,
// not the scan, unless every region fails this way.
type RegionError struct {
	Region string
	Err    error
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("region %s unreachable: %v", e.Region, e.Err)
}

func (e *RegionError) Unwrap() error {
	return e.Err
}
