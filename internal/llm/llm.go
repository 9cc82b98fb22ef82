// Package llm provides the model clients used by LLM-backed analyzers and
// the README writer.
//
// Clients are thin; cross-cutting behavior (rate limiting, retries) is
// layered on with Middleware:
//
//	c := llm.Wrap(gemini, llm.RateLimit(1, 1), llm.Retry(3, time.Second))
package llm

import (
	"context"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

// Request is one text generation call.
type Request struct {
	// System is sent as the system instruction when non-empty.
	System string
	Prompt string
	// Model overrides the client's default model.
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client generates text from a prompt.
type Client interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
	Close() error
}

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("empty response from model")

// PermanentError marks a failure that retrying will not fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// NewPermanentError wraps err as a PermanentError.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is marked permanent.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// Middleware decorates a Client.
type Middleware func(Client) Client

// Wrap applies middlewares so that Wrap(c, A, B) is A(B(c)).
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// Describe returns a short label for logs, e.g. "gemini:gemini-2.5-flash".
func Describe(c Client) string {
	if c == nil {
		return "none"
	}
	return c.Name()
}
