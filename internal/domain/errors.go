package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so wrapped copies made by
// WithError still satisfy errors.Is against the predefined value.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	// Treatment errors
	ErrUnknownTreatmentArea = &AppError{
		Code:       "UNKNOWN_TREATMENT_AREA",
		Message:    "Unknown treatment area",
		StatusCode: 422,
	}

	// Image errors
	ErrDecodeFailure = &AppError{
		Code:       "DECODE_FAILURE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	// Synthesis errors
	ErrSynthesisFailure = &AppError{
		Code:       "SYNTHESIS_FAILURE",
		Message:    "Image synthesis failed",
		StatusCode: 502,
	}

	ErrGenerationBusy = &AppError{
		Code:       "GENERATION_BUSY",
		Message:    "Synthesis device is busy, please try again later",
		StatusCode: 503,
	}

	ErrGenerationTimeout = &AppError{
		Code:       "GENERATION_TIMEOUT",
		Message:    "Image synthesis timed out",
		StatusCode: 504,
	}

	// Landmark errors
	ErrDetectionFailure = &AppError{
		Code:       "DETECTION_FAILURE",
		Message:    "Landmark detection failed",
		StatusCode: 502,
	}
)
