package compute

import (
	"errors"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ErrNotFound indicates the requested resource does not exist upstream.
var ErrNotFound = errors.New("resource not found")

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || isHCloudErrorCode(err, hcloud.ErrorCodeNotFound)
}

// IsTransient checks if an error is worth retrying: rate limits, locked
// resources, and provider-side conflicts all clear up on their own.
func IsTransient(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeRateLimitExceeded,
		hcloud.ErrorCodeLocked,
		hcloud.ErrorCodeConflict,
		hcloud.ErrorCodeResourceLocked,
		hcloud.ErrorCodeResourceUnavailable,
		hcloud.ErrorCodeServiceError,
	)
}

// IsUnauthorized checks if an error indicates a rejected credential.
// These errors are fatal and must never be retried.
func IsUnauthorized(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeUnauthorized,
		hcloud.ErrorCodeForbidden,
	)
}

// IsInvalidInput checks if an error indicates invalid request parameters.
func IsInvalidInput(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeInvalidInput,
		hcloud.ErrorCodeInvalidServerType,
	)
}

// isHCloudErrorCode checks if the error is an hcloud API error with one of the given codes.
func isHCloudErrorCode(err error, codes ...hcloud.ErrorCode) bool {
	if err == nil {
		return false
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		for _, code := range codes {
			if hcloudErr.Code == code {
				return true
			}
		}
	}
	return false
}
