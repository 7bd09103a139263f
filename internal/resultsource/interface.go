package resultsource

import (
	"context"
	"errors"

	"github.com/yourusername/gridline/internal/models"
)

// ResultSource defines the interface for fetching final race classifications
// from an external provider. Each adapter maps its provider's field names
// into the canonical Result shape before returning.
type ResultSource interface {
	// FetchResults retrieves the final classification for the event
	FetchResults(ctx context.Context, event *models.Event) Outcome

	// Name returns the name of the result source
	Name() string

	// Enabled returns whether this source is currently enabled
	Enabled() bool
}

// OutcomeStatus tags a provider attempt's outcome
type OutcomeStatus int

const (
	// StatusOK means the provider returned a usable classification
	StatusOK OutcomeStatus = iota
	// StatusRetryable means the attempt failed transiently; the chain
	// moves on to the next provider
	StatusRetryable
	// StatusExhausted means the provider has no data for this event and
	// retrying it would not help (race not yet finished, source disabled)
	StatusExhausted
)

// Outcome is the explicit result of one provider attempt. Transient
// failures and absent data move the chain to the next provider; neither
// is surfaced to the caller as an error.
type Outcome struct {
	Status  OutcomeStatus
	Results []models.Result
	Reason  string
	Err     error
}

// Ok wraps a successful classification.
func Ok(results []models.Result) Outcome {
	return Outcome{Status: StatusOK, Results: results}
}

// Retryable wraps a transient provider failure.
func Retryable(reason string, err error) Outcome {
	return Outcome{Status: StatusRetryable, Reason: reason, Err: err}
}

// Exhausted marks a provider that has nothing for this event.
func Exhausted(reason string) Outcome {
	return Outcome{Status: StatusExhausted, Reason: reason}
}

// ErrResultsNotAvailable is returned by the chain when every provider was
// exhausted. It is an expected condition, not a failure: the race may
// simply not have finished yet.
var ErrResultsNotAvailable = errors.New("results not yet available from any source")

// SourceError represents errors from result source operations
type SourceError struct {
	Source  string // Result source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// NewSourceError creates a new result source error
func NewSourceError(source, code, message string, err error) SourceError {
	return SourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
