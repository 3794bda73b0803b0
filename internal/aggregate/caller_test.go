package aggregate

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCaller is the in-memory OCS stand-in shared by the aggregate tests.
// The handler inspects the payload's top-level operation key and returns a
// canned response; every call is recorded for interaction assertions.
type fakeCaller struct {
	mu      sync.Mutex
	calls   []map[string]any
	handler func(payload map[string]any) (map[string]any, error)
}

func (f *fakeCaller) Call(_ context.Context, payload map[string]any) (map[string]any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, payload)
	f.mu.Unlock()
	return f.handler(payload)
}

// countOp returns how many recorded calls carried the given operation key.
func (f *fakeCaller) countOp(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if _, ok := c[op]; ok {
			n++
		}
	}
	return n
}

// op extracts the operation key of a recorded call.
func op(payload map[string]any) string {
	for k := range payload {
		return k
	}
	return ""
}
