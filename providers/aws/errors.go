package aws

import (
	"context"
	"errors"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/cloudpillar/cloudpillar/types"
)

var authCodes = map[string]bool{
	"AccessDenied":                true,
	"AccessDeniedException":       true,
	"AuthFailure":                 true,
	"ExpiredToken":                true,
	"ExpiredTokenException":       true,
	"InvalidClientTokenId":        true,
	"SignatureDoesNotMatch":       true,
	"UnauthorizedOperation":       true,
	"UnrecognizedClientException": true,
}

var throttleCodes = map[string]bool{
	"Throttling":                             true,
	"ThrottlingException":                    true,
	"ThrottledException":                     true,
	"RequestLimitExceeded":                   true,
	"RequestThrottled":                       true,
	"RequestThrottledException":              true,
	"TooManyRequestsException":               true,
	"ProvisionedThroughputExceededException": true,
	"SlowDown":                               true,
}

// classify converts an SDK failure into the typed probe error taxonomy.
func classify(err error) types.ProbeError {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.ProbeError{
			Kind:    types.ProbeErrUnknown,
			Code:    "Timeout",
			Message: "probe timed out",
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case authCodes[code]:
			return types.ProbeError{Kind: types.ProbeErrAuth, Code: code, Message: apiErr.ErrorMessage()}
		case throttleCodes[code]:
			return types.ProbeError{Kind: types.ProbeErrThrottled, Code: code, Message: apiErr.ErrorMessage()}
		}

		var respErr *smithyhttp.ResponseError
		if errors.As(err, &respErr) && respErr.HTTPStatusCode() >= 500 {
			return types.ProbeError{Kind: types.ProbeErrUnavailable, Code: code, Message: apiErr.ErrorMessage()}
		}
		if code == "ServiceUnavailable" || code == "ServiceUnavailableException" || code == "InternalError" || code == "InternalFailure" {
			return types.ProbeError{Kind: types.ProbeErrUnavailable, Code: code, Message: apiErr.ErrorMessage()}
		}

		return types.ProbeError{Kind: types.ProbeErrUnknown, Code: code, Message: apiErr.ErrorMessage()}
	}

	return types.ProbeError{Kind: types.ProbeErrUnknown, Message: err.Error()}
}
