package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("orchestrator")
	logger.Logger = logger.Logger.Output(&buf)

	logger.Info().Str("scan_id", "abc").Msg("scan started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "orchestrator", entry["component"])
	assert.Equal(t, "abc", entry["scan_id"])
	assert.Equal(t, "scan started", entry["message"])
}

func TestSetLevel(t *testing.T) {
	SetLevel("debug")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	// Unknown levels fall back to info
	SetLevel("loud")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	SetLevel("info")
}

func TestRecordHelpers_NoInit(t *testing.T) {
	// Must not panic before InitOTEL has run
	ctx := context.Background()
	RecordScanStarted(ctx)
	RecordScanCompleted(ctx, 12.5)
	RecordScanFailed(ctx)
	RecordProbeFailure(ctx, "ec2", "throttled")
	RecordRegionDuration(ctx, "us-east-1", 250)
}
