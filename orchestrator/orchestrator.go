// Package orchestrator coordinates the scan lifecycle: create the record,
// fan out over regions in the background, persist progress for polling
// readers, and finalize with a recommendation. Scan requests return
// immediately; all region work happens on a supervised goroutine.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"golang.org/x/sync/errgroup"

	"github.com/cloudpillar/cloudpillar/creds"
	"github.com/cloudpillar/cloudpillar/providers"
	"github.com/cloudpillar/cloudpillar/recommend"
	"github.com/cloudpillar/cloudpillar/scanner"
	"github.com/cloudpillar/cloudpillar/storage"
	"github.com/cloudpillar/cloudpillar/telemetry"
	"github.com/cloudpillar/cloudpillar/types"
)

// Config wires the orchestrator's collaborators and bounds.
type Config struct {
	Store       storage.ScanStore
	Resolver    creds.Resolver
	Factory     providers.Factory
	Lister      providers.RegionLister
	Recommender recommend.Provider

	// RegionConcurrency caps regions scanned at once. Zero means 4.
	RegionConcurrency int
	ProbeTimeout      time.Duration
	ProbeRetries      int
	// RecommendTimeout bounds the recommendation call. The scan still
	// completes when it expires; a placeholder is stored instead.
	RecommendTimeout time.Duration
}

// Orchestrator runs scans end to end.
type Orchestrator struct {
	store       storage.ScanStore
	resolver    creds.Resolver
	factory     providers.Factory
	lister      providers.RegionLister
	recommender recommend.Provider
	scanner     *scanner.RegionScanner

	concurrency      int
	recommendTimeout time.Duration

	logger *telemetry.Logger
	wg     sync.WaitGroup
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	concurrency := cfg.RegionConcurrency
	if concurrency < 1 {
		concurrency = 4
	}
	recommendTimeout := cfg.RecommendTimeout
	if recommendTimeout <= 0 {
		recommendTimeout = 2 * time.Minute
	}

	return &Orchestrator{
		store:       cfg.Store,
		resolver:    cfg.Resolver,
		factory:     cfg.Factory,
		lister:      cfg.Lister,
		recommender: cfg.Recommender,
		scanner: scanner.New(scanner.Options{
			ProbeTimeout: cfg.ProbeTimeout,
			ProbeRetries: cfg.ProbeRetries,
		}),
		concurrency:      concurrency,
		recommendTimeout: recommendTimeout,
		logger:           telemetry.NewLogger("orchestrator"),
	}
}

// Start validates the request, persists a pending record, and launches
// the scan in the background. The returned scan is the pending record;
// callers poll Get for progress.
func (o *Orchestrator) Start(ctx context.Context, ownerID, name, credentialID string, regions []string) (*types.Scan, error) {
	scan, err := types.NewScan(ownerID, name, credentialID, regions)
	if err != nil {
		return nil, err
	}

	// Resolve before creating the record so a bad credential reference
	// fails the request instead of a background scan.
	credentials, err := o.resolver.Resolve(ctx, credentialID)
	if err != nil {
		return nil, err
	}

	if err := o.store.Create(ctx, scan); err != nil {
		return nil, fmt.Errorf("failed to create scan record: %w", err)
	}

	telemetry.RecordScanStarted(ctx)
	o.logger.LogScanStarted(ctx, scan.ID, len(scan.Regions))

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		// The request context dies with the HTTP response; the scan must not.
		o.execute(context.WithoutCancel(ctx), scan, credentials)
	}()

	return scan, nil
}

// Get returns one scan scoped to its owner.
func (o *Orchestrator) Get(ctx context.Context, ownerID, scanID string) (*types.Scan, error) {
	return o.store.Get(ctx, ownerID, scanID)
}

// List returns the owner's scans, newest first.
func (o *Orchestrator) List(ctx context.Context, ownerID string) ([]*types.Scan, error) {
	return o.store.List(ctx, ownerID)
}

// Delete removes the scan record. A scan still running keeps probing but
// every later write lands on ErrNotFound and the run winds down quietly.
func (o *Orchestrator) Delete(ctx context.Context, ownerID, scanID string) error {
	return o.store.Delete(ctx, ownerID, scanID)
}

// Drain blocks until all in-flight scans finish. Used on shutdown and by
// tests; new scans started during the wait are included.
func (o *Orchestrator) Drain() {
	o.wg.Wait()
}

// execute runs one scan to a terminal state. Never returns an error:
// every failure path finalizes the record instead.
func (o *Orchestrator) execute(ctx context.Context, scan *types.Scan, credentials aws.CredentialsProvider) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.WithContext(ctx).Error().
				Str("scan_id", scan.ID).
				Interface("panic", r).
				Msg("scan panicked")
			o.fail(ctx, scan, fmt.Sprintf("internal error: %v", r))
		}
	}()

	if err := o.store.MarkRunning(ctx, scan.OwnerID, scan.ID); err != nil {
		if storage.IsNotFound(err) {
			return // deleted before execution started
		}
		o.fail(ctx, scan, fmt.Sprintf("failed to mark scan running: %v", err))
		return
	}

	regions := scan.Regions
	if len(regions) == 0 {
		discovered, err := o.lister(ctx, credentials)
		if err != nil {
			o.fail(ctx, scan, fmt.Sprintf("region discovery failed: %v", err))
			return
		}
		regions = discovered
	}
	if len(regions) == 0 {
		o.fail(ctx, scan, "no regions to scan")
		return
	}

	results, deleted := o.scanRegions(ctx, scan, credentials, regions)
	if deleted {
		o.logger.WithContext(ctx).Info().
			Str("scan_id", scan.ID).
			Msg("scan record deleted mid-run, abandoning")
		return
	}

	if allUnreachable(results) {
		o.fail(ctx, scan, "all regions unreachable")
		return
	}

	recommendation, warning := o.recommendFor(ctx, scan, results)

	err := o.store.Finalize(ctx, scan.OwnerID, scan.ID, storage.Finalization{
		Status:         types.StatusCompleted,
		Recommendation: recommendation,
		Warning:        warning,
	})
	if err != nil && !storage.IsNotFound(err) {
		o.logger.WithContext(ctx).Error().
			Str("scan_id", scan.ID).
			Err(err).
			Msg("failed to finalize scan")
		return
	}

	telemetry.RecordScanCompleted(ctx, float64(time.Since(start).Milliseconds()))
	o.logger.LogScanFinished(ctx, scan.ID, types.StatusCompleted.String(), nil)
}

// scanRegions fans out over regions with bounded concurrency, persisting
// each finished region and the derived progress. Returns the collected
// results and whether the record vanished mid-run.
func (o *Orchestrator) scanRegions(ctx context.Context, scan *types.Scan, credentials aws.CredentialsProvider, regions []string) (map[string]types.RegionResult, bool) {
	total := len(regions)
	results := make(map[string]types.RegionResult, total)
	scanned := make([]string, 0, total)
	deleted := false

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for _, region := range regions {
		g.Go(func() error {
			mu.Lock()
			stop := deleted
			mu.Unlock()
			if stop {
				return nil
			}

			result := o.scanOneRegion(gctx, region, credentials)

			mu.Lock()
			defer mu.Unlock()
			if deleted {
				return nil
			}

			results[region] = result
			scanned = append(scanned, region)
			progress := int(math.Round(float64(len(scanned)) / float64(total) * 100))

			if err := o.persistRegion(gctx, scan, result, scanned, progress); err != nil {
				if storage.IsNotFound(err) {
					deleted = true
					return nil
				}
				o.logger.WithContext(gctx).Error().
					Str("scan_id", scan.ID).
					Str("region", region).
					Err(err).
					Msg("failed to persist region result")
			}

			o.logger.LogRegionDone(gctx, scan.ID, region, len(result.Errors), result.DurationMs)
			return nil
		})
	}

	_ = g.Wait() // workers never return errors

	return results, deleted
}

// scanOneRegion builds a provider for the region and runs its probes. A
// provider that cannot even be constructed becomes an unreachable result.
// The errgroup does not recover worker panics, so a panic anywhere in the
// region work is contained here as an unreachable result instead of
// taking down the process.
func (o *Orchestrator) scanOneRegion(ctx context.Context, region string, credentials aws.CredentialsProvider) (result types.RegionResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.WithContext(ctx).Error().
				Str("region", region).
				Interface("panic", r).
				Msg("region scan panicked")
			result = types.RegionResult{
				Region:       region,
				Unreachable:  true,
				ErrorMessage: fmt.Sprintf("region %s unreachable: scan panicked: %v", region, r),
				ScannedAt:    start,
				DurationMs:   time.Since(start).Milliseconds(),
			}
		}
	}()

	provider, err := o.factory(ctx, region, credentials)
	if err != nil {
		regionErr := &types.RegionError{Region: region, Err: err}
		return types.RegionResult{
			Region:       region,
			Unreachable:  true,
			ErrorMessage: regionErr.Error(),
			ScannedAt:    start,
			DurationMs:   time.Since(start).Milliseconds(),
		}
	}

	return o.scanner.ScanRegion(ctx, provider)
}

func (o *Orchestrator) persistRegion(ctx context.Context, scan *types.Scan, result types.RegionResult, scanned []string, progress int) error {
	if err := o.store.AppendRegionResult(ctx, scan.OwnerID, scan.ID, result); err != nil {
		return err
	}
	return o.store.UpdateProgress(ctx, scan.OwnerID, scan.ID, scanned, progress)
}

// recommendFor asks the provider for a recommendation under a deadline.
// Failure never fails the scan; the record gets a placeholder and a
// warning explaining why.
func (o *Orchestrator) recommendFor(ctx context.Context, scan *types.Scan, results map[string]types.RegionResult) (recommendation, warning string) {
	if o.recommender == nil {
		return "", ""
	}

	rctx, cancel := context.WithTimeout(ctx, o.recommendTimeout)
	defer cancel()

	snapshot := *scan
	snapshot.Results = results

	text, err := o.recommender.Recommend(rctx, &snapshot)
	if err == nil {
		return text, ""
	}

	o.logger.WithContext(ctx).Warn().
		Str("scan_id", scan.ID).
		Err(err).
		Msg("recommendation unavailable, storing placeholder")

	if errors.Is(err, recommend.ErrProviderTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(rctx.Err(), context.DeadlineExceeded) {
		return recommend.Placeholder, recommend.TimeoutWarning
	}
	return recommend.Placeholder, "recommendation generation failed"
}

// fail finalizes the scan as failed. A record deleted mid-run makes this
// a no-op.
func (o *Orchestrator) fail(ctx context.Context, scan *types.Scan, message string) {
	err := o.store.Finalize(ctx, scan.OwnerID, scan.ID, storage.Finalization{
		Status:       types.StatusFailed,
		ErrorMessage: message,
	})
	if err != nil && !storage.IsNotFound(err) {
		o.logger.WithContext(ctx).Error().
			Str("scan_id", scan.ID).
			Err(err).
			Msg("failed to finalize failed scan")
	}

	telemetry.RecordScanFailed(ctx)
	o.logger.LogScanFinished(ctx, scan.ID, types.StatusFailed.String(), errors.New(message))
}

func allUnreachable(results map[string]types.RegionResult) bool {
	for _, result := range results {
		if !result.Unreachable {
			return false
		}
	}
	return len(results) > 0
}
