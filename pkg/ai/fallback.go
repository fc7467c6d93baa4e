package ai

import (
	"context"
	"errors"
	"net"
	"strings"
)

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return containsAny(err.Error(),
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"EOF",
	)
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(),
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"RESOURCE_EXHAUSTED",
	)
}

// isBlockedError reports a safety block raised by a generator. Blocks are not
// retried. Provider errors that merely mention "blocked" (a disabled API key)
// are ordinary failures.
func isBlockedError(err error) bool {
	return errors.Is(err, ErrBlocked)
}

// classify names an error for logs.
func classify(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case isBlockedError(err):
		return "blocked"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case isQuotaError(err):
		return "quota"
	case isConnectionError(err):
		return "connection"
	default:
		return "other"
	}
}

func containsAny(s string, indicators ...string) bool {
	lower := strings.ToLower(s)
	for _, indicator := range indicators {
		if strings.Contains(lower, strings.ToLower(indicator)) {
			return true
		}
	}
	return false
}
