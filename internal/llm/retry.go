package llm

import (
	"context"
	"time"
)

// Retry retries Generate up to maxAttempts times with exponential backoff
// starting at baseDelay. Permanent errors and context errors end the loop.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Client
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Generate(ctx context.Context, req Request) (string, error) {
	var last error
	for i := range r.max {
		out, err := r.next.Generate(ctx, req)
		if err == nil {
			return out, nil
		}
		if IsPermanent(err) {
			return "", err
		}
		last = err
		if i == r.max-1 {
			break
		}

		t := time.NewTimer(r.base << i)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return "", last
}
