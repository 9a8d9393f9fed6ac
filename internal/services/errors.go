package services

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// quotaReasons are 403 reasons that mean "slow down", not "sign in again".
var quotaReasons = map[string]bool{
	"quotaExceeded":           true,
	"rateLimitExceeded":       true,
	"userRateLimitExceeded":   true,
	"dailyLimitExceeded":      true,
	"servingLimitExceeded":    true,
	"concurrentLimitExceeded": true,
}

// IsAuthError reports whether err means the user's Google credentials are no longer usable.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return true
		case http.StatusForbidden:
			return !IsQuotaError(err)
		}
		return false
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorCode == "invalid_grant" {
			return true
		}
		return strings.Contains(string(retrieveErr.Body), "invalid_grant")
	}

	return false
}

// IsQuotaError reports whether err is a YouTube quota or rate limit rejection.
// Callers treat these as fatal for the request.
func IsQuotaError(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	for _, item := range apiErr.Errors {
		if quotaReasons[item.Reason] {
			return true
		}
	}
	return false
}
