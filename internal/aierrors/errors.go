// Package aierrors classifies errors returned by model providers into the
// taxonomy AIDispatcher surfaces to its callers (spec.md §4.5, §7).
//
// The two-tier approach — check the provider SDK's typed error first, fall
// back to a string-pattern match second — mirrors the teacher's
// pkg/aierrors classifier.
package aierrors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/v3"
)

// Outcome is the five-state result AIDispatcher hands back to callers.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeQuotaExhausted Outcome = "quota_exhausted"
	OutcomeUpstreamError  Outcome = "upstream_error"
	OutcomeTimeout        Outcome = "timeout"
	OutcomeDisabled       Outcome = "disabled"
)

// Classify maps err onto the five-state taxonomy AIDispatcher exposes.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	if IsTimeout(err) {
		return OutcomeTimeout
	}
	if IsQuotaExhausted(err) {
		return OutcomeQuotaExhausted
	}
	return OutcomeUpstreamError
}

// IsTimeout reports whether err represents a request timeout or context
// cancellation due to a deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return containsAny(err, []string{
		"timeout", "timed out", "deadline exceeded", "context deadline exceeded",
	})
}

// IsQuotaExhausted reports a rate-limit or quota-exhaustion error from
// either provider SDK.
func IsQuotaExhausted(err error) bool {
	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		if oaiErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
	}
	var anthErr *anthropic.Error
	if errors.As(err, &anthErr) {
		if anthErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
	}
	return containsAny(err, []string{
		"rate_limit", "rate limit", "quota exceeded", "resource_exhausted", "429",
	})
}

// IsAuthError reports an authentication/authorization failure.
func IsAuthError(err error) bool {
	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		if oaiErr.StatusCode == http.StatusUnauthorized || oaiErr.StatusCode == http.StatusForbidden {
			return true
		}
	}
	var anthErr *anthropic.Error
	if errors.As(err, &anthErr) {
		if anthErr.StatusCode == http.StatusUnauthorized || anthErr.StatusCode == http.StatusForbidden {
			return true
		}
	}
	return containsAny(err, []string{"invalid api key", "unauthorized", "forbidden"})
}

// IsServerError reports a 5xx failure from the provider.
func IsServerError(err error) bool {
	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		return oaiErr.StatusCode >= 500
	}
	var anthErr *anthropic.Error
	if errors.As(err, &anthErr) {
		return anthErr.StatusCode >= 500
	}
	return containsAny(err, []string{"500", "502", "503", "server_error", "overloaded"})
}

// ShouldFailover reports whether err should trigger AIDispatcher's one-shot
// failover to the backup provider (spec.md §4.5: timeout, explicit
// rate-limit, quota-exhausted, or any exception).
func ShouldFailover(err error) bool {
	if err == nil {
		return false
	}
	return true
}

func containsAny(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
