package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recording helpers. Instruments are nil until InitOTEL runs (for example
// in unit tests), so every helper guards against that.

func RecordScanStarted(ctx context.Context) {
	if ScansStarted != nil {
		ScansStarted.Add(ctx, 1)
	}
}

func RecordScanCompleted(ctx context.Context, durationMs float64) {
	if ScansCompleted != nil {
		ScansCompleted.Add(ctx, 1)
	}
	if ScanDuration != nil {
		ScanDuration.Record(ctx, durationMs)
	}
}

func RecordScanFailed(ctx context.Context) {
	if ScansFailed != nil {
		ScansFailed.Add(ctx, 1)
	}
}

func RecordProbeFailure(ctx context.Context, service, kind string) {
	if ProbeFailures != nil {
		ProbeFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("service", service),
			attribute.String("kind", kind),
		))
	}
}

func RecordRegionDuration(ctx context.Context, region string, durationMs float64) {
	if RegionDuration != nil {
		RegionDuration.Record(ctx, durationMs, metric.WithAttributes(
			attribute.String("region", region),
		))
	}
}
