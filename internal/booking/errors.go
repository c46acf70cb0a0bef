package booking

import "errors"

var (
	// ErrCalendarUnavailable blocks opening a flow when the service calendar
	// cannot be fetched.
	ErrCalendarUnavailable = errors.New("booking: service calendar unavailable")
	// ErrSessionNotFound is returned for unknown or expired booking sessions.
	ErrSessionNotFound = errors.New("booking: session not found")
)

// Validation codes carried by ValidationError.
const (
	CodeDateRequired         = "date_required"
	CodeSlotRequired         = "slot_required"
	CodeDateOutOfRange       = "date_out_of_range"
	CodeDateUnavailable      = "date_unavailable"
	CodeSlotUnavailable      = "slot_unavailable"
	CodeWrongStep            = "wrong_step"
	CodeSubmissionInProgress = "submission_in_progress"
)

// ValidationError blocks a flow transition. Message is safe to show users.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return "booking: " + e.Code + ": " + e.Message
}

func newValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// SubmissionError reports a failed appointment submission. The flow stays
// open so the user can retry.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return "booking: submission failed: " + e.Err.Error()
	}
	return "booking: submission failed: " + e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
