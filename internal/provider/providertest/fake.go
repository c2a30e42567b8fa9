// Package providertest provides a scriptable fake provider.Adapter for
// exercising the Iteration Manager, loops, and Tier Engine without a
// network call, grounded on the teacher framework's
// ai/providers/mock.Client (a response queue plus a configurable error and
// call-count bookkeeping).
package providertest

import (
	"context"
	"errors"
	"sync"

	"github.com/itsneelabh/ralph/internal/provider"
)

// FakeAdapter replays a scripted sequence of responses, or returns a
// configured error, recording every request it receives.
type FakeAdapter struct {
	mu sync.Mutex

	responses     []provider.Response
	responseIndex int
	err           error

	calls []provider.Request
}

// NewFakeAdapter builds a fake that returns responses in order, one per
// call to Complete, wrapping around if called more times than responses
// given.
func NewFakeAdapter(responses ...provider.Response) *FakeAdapter {
	return &FakeAdapter{responses: responses}
}

// Complete implements provider.Adapter.
func (f *FakeAdapter) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, req)

	select {
	case <-ctx.Done():
		return provider.Response{}, ctx.Err()
	default:
	}

	if f.err != nil {
		return provider.Response{}, f.err
	}
	if len(f.responses) == 0 {
		return provider.Response{}, errors.New("providertest: no responses configured")
	}

	resp := f.responses[f.responseIndex%len(f.responses)]
	f.responseIndex++
	return resp, nil
}

// SetError makes every subsequent Complete call return err.
func (f *FakeAdapter) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// SetResponses replaces the response queue and resets the read index.
func (f *FakeAdapter) SetResponses(responses ...provider.Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = responses
	f.responseIndex = 0
}

// CallCount reports how many times Complete was invoked.
func (f *FakeAdapter) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// LastRequest returns the most recent request, or the zero value if none.
func (f *FakeAdapter) LastRequest() provider.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return provider.Request{}
	}
	return f.calls[len(f.calls)-1]
}

var _ provider.Adapter = (*FakeAdapter)(nil)

// NewTestRouter builds a Router with fake in the given tag slot and a
// no-op credential check, for loop/tier unit tests that need a
// *provider.Router but not a live vendor.
func NewTestRouter(tag provider.Tag, fake *FakeAdapter, opts ...provider.RouterOption) *provider.Router {
	allOpts := append([]provider.RouterOption{provider.WithAdapter(tag, fake)}, opts...)
	return provider.NewRouter(allOpts...)
}
