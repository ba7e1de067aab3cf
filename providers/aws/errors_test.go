package aws

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"

	"github.com/cloudpillar/cloudpillar/types"
)

func TestClassifyAPIErrors(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		wantKind types.ProbeErrorKind
	}{
		{"access denied", "AccessDenied", types.ProbeErrAuth},
		{"expired token", "ExpiredTokenException", types.ProbeErrAuth},
		{"unauthorized operation", "UnauthorizedOperation", types.ProbeErrAuth},
		{"throttling", "Throttling", types.ProbeErrThrottled},
		{"request limit", "RequestLimitExceeded", types.ProbeErrThrottled},
		{"slow down", "SlowDown", types.ProbeErrThrottled},
		{"service unavailable", "ServiceUnavailable", types.ProbeErrUnavailable},
		{"internal failure", "InternalFailure", types.ProbeErrUnavailable},
		{"validation error", "ValidationException", types.ProbeErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &smithy.GenericAPIError{Code: tt.code, Message: "boom"}

			probeErr := classify(err)

			assert.Equal(t, tt.wantKind, probeErr.Kind)
			assert.Equal(t, tt.code, probeErr.Code)
			assert.Equal(t, "boom", probeErr.Message)
		})
	}
}

func TestClassifyWrappedAPIError(t *testing.T) {
	err := fmt.Errorf("operation error EC2: DescribeInstances, %w",
		&smithy.GenericAPIError{Code: "AuthFailure", Message: "bad creds"})

	probeErr := classify(err)

	assert.Equal(t, types.ProbeErrAuth, probeErr.Kind)
	assert.Equal(t, "AuthFailure", probeErr.Code)
}

func TestClassifyDeadlineExceeded(t *testing.T) {
	probeErr := classify(fmt.Errorf("request failed: %w", context.DeadlineExceeded))

	assert.Equal(t, types.ProbeErrUnknown, probeErr.Kind)
	assert.Equal(t, "Timeout", probeErr.Code)
}

func TestClassifyOpaqueError(t *testing.T) {
	probeErr := classify(errors.New("connection reset by peer"))

	assert.Equal(t, types.ProbeErrUnknown, probeErr.Kind)
	assert.Empty(t, probeErr.Code)
	assert.Contains(t, probeErr.Message, "connection reset")
}

func TestClassifyRetryable(t *testing.T) {
	throttled := classify(&smithy.GenericAPIError{Code: "ThrottlingException"})
	assert.True(t, throttled.Retryable())

	denied := classify(&smithy.GenericAPIError{Code: "AccessDenied"})
	assert.False(t, denied.Retryable())
}
