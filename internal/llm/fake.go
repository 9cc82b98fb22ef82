package llm

import (
	"context"
	"strings"
	"sync"
)

// FakeClient is a deterministic Client for tests and offline runs.
// By default it echoes the first non-empty prompt line.
type FakeClient struct {
	// Respond, when set, produces the reply.
	Respond func(req Request) (string, error)

	mu    sync.Mutex
	calls []Request
}

// NewFakeClient returns a FakeClient that uses respond when non-nil.
func NewFakeClient(respond func(Request) (string, error)) *FakeClient {
	return &FakeClient{Respond: respond}
}

func (f *FakeClient) Name() string { return "fake" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.Respond != nil {
		return f.Respond(req)
	}
	for line := range strings.SplitSeq(req.Prompt, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s, nil
		}
	}
	return "", NewPermanentError(ErrEmptyResponse)
}

// Calls returns a copy of every request received.
func (f *FakeClient) Calls() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.calls))
	copy(out, f.calls)
	return out
}
