package summarize

import (
	"context"
	"errors"
	"strings"
)

// Request is one article sent to the model.
type Request struct {
	ItemID  string
	Title   string
	Content string
}

// Provider generates summaries for a batch of articles in one model call.
type Provider interface {
	Summarize(ctx context.Context, batch []Request) ([]Block, error)
}

// TransientError marks a model failure worth one delayed retry, typically
// an overloaded backend.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient model error: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether the error is a retry-once condition. Overload
// responses surface as 503s from the API.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "503") || strings.Contains(strings.ToLower(msg), "overloaded")
}
