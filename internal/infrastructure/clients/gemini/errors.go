package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/zatekoja/restaurantfinder/backend/pkg/errors"
	"google.golang.org/genai"
)

// messageMarkers are matched case-sensitively, in order, against provider
// error text when no structured code identifies the failure.
var messageMarkers = []struct {
	errType apperrors.ErrorType
	markers []string
}{
	{apperrors.ErrorTypeInvalidCredentials, []string{"API_KEY_INVALID", "authentication"}},
	{apperrors.ErrorTypeQuotaExceeded, []string{"QUOTA_EXCEEDED", "quota"}},
	{apperrors.ErrorTypeSafetyBlocked, []string{"SAFETY", "safety"}},
	{apperrors.ErrorTypeRecitationBlocked, []string{"RECITATION", "recitation"}},
	{apperrors.ErrorTypeRateLimited, []string{"RATE_LIMIT", "rate"}},
}

var errorMessages = map[apperrors.ErrorType]string{
	apperrors.ErrorTypeInvalidCredentials: "gemini API key is invalid",
	apperrors.ErrorTypeQuotaExceeded:      "gemini API quota exhausted, try again later",
	apperrors.ErrorTypeSafetyBlocked:      "content blocked by the safety filter",
	apperrors.ErrorTypeRecitationBlocked:  "generated content was blocked for recitation",
	apperrors.ErrorTypeRateLimited:        "gemini request rate limit exceeded, wait before retrying",
	apperrors.ErrorTypeUnknown:            "gemini request failed",
	apperrors.ErrorTypeEmptyResponse:      "gemini returned an empty response",
}

func newClassifiedError(errType apperrors.ErrorType, cause error) *apperrors.AppError {
	return apperrors.New(errType, errorMessages[errType], cause)
}

// classifyError maps a provider error into the AI error taxonomy.
// Structured API error codes take precedence over message matching.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newClassifiedError(apperrors.ErrorTypeUnknown, err)
	}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return newClassifiedError(classifyMessage(err.Error()), err)
	}

	if errType := classifyAPIError(apiErr); errType != "" {
		return newClassifiedError(errType, err)
	}
	return newClassifiedError(classifyMessage(err.Error()), err)
}

func classifyAPIError(apiErr genai.APIError) apperrors.ErrorType {
	switch {
	case apiErr.Code == http.StatusUnauthorized,
		apiErr.Code == http.StatusForbidden,
		apiErr.Status == "UNAUTHENTICATED",
		apiErr.Status == "PERMISSION_DENIED",
		strings.Contains(apiErr.Message, "API_KEY_INVALID"),
		strings.Contains(apiErr.Message, "API key not valid"):
		return apperrors.ErrorTypeInvalidCredentials
	case apiErr.Code == http.StatusTooManyRequests, apiErr.Status == "RESOURCE_EXHAUSTED":
		if strings.Contains(strings.ToLower(apiErr.Message), "quota") {
			return apperrors.ErrorTypeQuotaExceeded
		}
		return apperrors.ErrorTypeRateLimited
	}
	return ""
}

// classifyMessage applies messageMarkers; first match wins.
func classifyMessage(message string) apperrors.ErrorType {
	for _, candidate := range messageMarkers {
		for _, marker := range candidate.markers {
			if strings.Contains(message, marker) {
				return candidate.errType
			}
		}
	}
	return apperrors.ErrorTypeUnknown
}

// blockedResponseError explains an empty response using the prompt block
// reason or candidate finish reason, or returns EMPTY_RESPONSE.
func blockedResponseError(resp *genai.GenerateContentResponse) error {
	if resp != nil {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason := resp.PromptFeedback.BlockReason
			if reason == genai.BlockedReasonSafety {
				return newClassifiedError(apperrors.ErrorTypeSafetyBlocked, errors.New(string(reason)))
			}
			return newClassifiedError(classifyMessage(string(reason)), errors.New(string(reason)))
		}
		for _, candidate := range resp.Candidates {
			if candidate == nil {
				continue
			}
			switch candidate.FinishReason {
			case genai.FinishReasonSafety:
				return newClassifiedError(apperrors.ErrorTypeSafetyBlocked, errors.New(string(candidate.FinishReason)))
			case genai.FinishReasonRecitation:
				return newClassifiedError(apperrors.ErrorTypeRecitationBlocked, errors.New(string(candidate.FinishReason)))
			}
		}
	}
	return newClassifiedError(apperrors.ErrorTypeEmptyResponse, nil)
}
