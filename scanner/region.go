// Package scanner executes the probe set of a single region and folds the
// outcome into one RegionResult. Probes run concurrently; a failing probe
// records a typed error and never aborts its siblings.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudpillar/cloudpillar/providers"
	"github.com/cloudpillar/cloudpillar/telemetry"
	"github.com/cloudpillar/cloudpillar/types"
)

// Options bounds probe execution.
type Options struct {
	// ProbeTimeout caps a single probe attempt.
	ProbeTimeout time.Duration
	// ProbeRetries is the attempt budget for throttled probes. Only
	// throttling is retried; auth and server failures fail immediately.
	ProbeRetries int
}

// RegionScanner runs all probes of one region.
type RegionScanner struct {
	opts    Options
	backoff time.Duration
	logger  *telemetry.Logger
}

// New creates a region scanner.
func New(opts Options) *RegionScanner {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 30 * time.Second
	}
	if opts.ProbeRetries < 1 {
		opts.ProbeRetries = 1
	}
	return &RegionScanner{
		opts:    opts,
		backoff: time.Second,
		logger:  telemetry.NewLogger("scanner"),
	}
}

// ScanRegion probes every service in the provider's region. An account
// unreachable from the region yields an Unreachable result; individual
// probe failures land in the result's Errors map.
func (s *RegionScanner) ScanRegion(ctx context.Context, provider providers.RegionProvider) types.RegionResult {
	region := provider.Region()
	start := time.Now()

	if err := provider.CheckAccess(ctx); err != nil {
		regionErr := &types.RegionError{Region: region, Err: err}
		s.logger.WithContext(ctx).Warn().
			Str("region", region).
			Err(regionErr).
			Msg("region unreachable")

		return types.RegionResult{
			Region:       region,
			Unreachable:  true,
			ErrorMessage: regionErr.Error(),
			ScannedAt:    start,
			DurationMs:   time.Since(start).Milliseconds(),
		}
	}

	probes := provider.Probes()
	services := make(map[string]types.ServiceSummary, len(probes))
	probeErrors := make(map[string]types.ProbeError)

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, p := range probes {
		wg.Add(1)
		go func(p providers.Probe) {
			defer wg.Done()

			summary, err := s.runProbe(ctx, p)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				probeErr := asProbeError(err)
				probeErrors[p.Service()] = probeErr
				telemetry.RecordProbeFailure(ctx, p.Service(), string(probeErr.Kind))

				s.logger.WithContext(ctx).Warn().
					Str("region", region).
					Str("service", p.Service()).
					Str("kind", string(probeErr.Kind)).
					Str("code", probeErr.Code).
					Msg("probe failed")
				return
			}
			services[p.Service()] = summary
		}(p)
	}
	wg.Wait()

	durationMs := time.Since(start).Milliseconds()
	telemetry.RecordRegionDuration(ctx, region, float64(durationMs))

	result := types.RegionResult{
		Region:     region,
		Services:   services,
		ScannedAt:  start,
		DurationMs: durationMs,
	}
	if len(probeErrors) > 0 {
		result.Errors = probeErrors
	}
	return result
}

// runProbe executes one probe with a per-attempt timeout, retrying only
// throttled failures with linear backoff. A probe that panics is recorded
// as an unknown failure so its siblings keep running.
func (s *RegionScanner) runProbe(ctx context.Context, p providers.Probe) (summary types.ServiceSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			summary = types.ServiceSummary{}
			err = types.ProbeError{
				Kind:    types.ProbeErrUnknown,
				Code:    "Panic",
				Message: fmt.Sprintf("probe panicked: %v", r),
			}
		}
	}()

	var lastErr error

	for attempt := 1; attempt <= s.opts.ProbeRetries; attempt++ {
		probeCtx, cancel := context.WithTimeout(ctx, s.opts.ProbeTimeout)
		summary, err := p.Run(probeCtx)
		cancel()

		if err == nil {
			return summary, nil
		}
		lastErr = err

		probeErr := asProbeError(err)
		if !probeErr.Retryable() || attempt == s.opts.ProbeRetries {
			break
		}

		select {
		case <-time.After(time.Duration(attempt) * s.backoff):
		case <-ctx.Done():
			return types.ServiceSummary{}, asProbeError(ctx.Err())
		}
	}

	return types.ServiceSummary{}, lastErr
}

// asProbeError normalizes any failure into the typed taxonomy.
func asProbeError(err error) types.ProbeError {
	var probeErr types.ProbeError
	if errors.As(err, &probeErr) {
		return probeErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.ProbeError{Kind: types.ProbeErrUnknown, Code: "Timeout", Message: "probe timed out"}
	}
	return types.ProbeError{Kind: types.ProbeErrUnknown, Message: err.Error()}
}
