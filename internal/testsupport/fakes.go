package testsupport

import (
	"context"
	"sync"

	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/extract"
	"github.com/joseph-ayodele/boxscore-tracker/internal/llm"
)

// FakeText answers every path with the same text result.
type FakeText struct {
	Result extract.TextExtractionResult
	Err    error
}

func (f *FakeText) Extract(context.Context, string) (extract.TextExtractionResult, error) {
	return f.Result, f.Err
}

// FakeFields hands requests to Fn and remembers them.
type FakeFields struct {
	Fn func(req llm.ExtractRequest) (*candidate.Record, error)

	mu       sync.Mutex
	Requests []llm.ExtractRequest
}

func (f *FakeFields) ExtractFields(_ context.Context, req llm.ExtractRequest) (*candidate.Record, []byte, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	f.mu.Unlock()
	rec, err := f.Fn(req)
	return rec, nil, err
}
