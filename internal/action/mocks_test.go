// internal/action/mocks_test.go
package action

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/webtester/internal/events"
)

// -- Target Fake --

// fakeTarget counts invalidations and reports a configurable presence.
type fakeTarget struct {
	identity     string
	present      bool
	presenceErr  error
	invalidated  int
	presenceHits int
}

func newFakeTarget(identity string) *fakeTarget {
	return &fakeTarget{identity: identity, present: true}
}

func (f *fakeTarget) Identity() string { return f.identity }

func (f *fakeTarget) IsPresent(ctx context.Context) (bool, error) {
	f.presenceHits++
	return f.present, f.presenceErr
}

func (f *fakeTarget) Invalidate() { f.invalidated++ }

// -- Waiter Mock --

// MockWaiter mocks the Waiter interface. When the expectation returns no
// error it behaves like a real waiter and runs invalidate and condition once.
type MockWaiter struct {
	mock.Mock
}

func (m *MockWaiter) Until(ctx context.Context, invalidate func(), condition func(ctx context.Context) (bool, error)) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	invalidate()
	_, err := condition(ctx)
	return err
}

// -- Event Sink Fake --

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Fire(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) exceptions() []*events.ExceptionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*events.ExceptionEvent
	for _, e := range s.events {
		if ex, ok := e.(*events.ExceptionEvent); ok {
			out = append(out, ex)
		}
	}
	return out
}

// -- Scripted Operation --

// scriptedOp returns the scripted results in order and counts its calls.
type scriptedOp[B any] struct {
	results []scriptedResult[B]
	calls   int
}

type scriptedResult[B any] struct {
	value B
	err   error
}

func (s *scriptedOp[B]) run(ctx context.Context, target Target) (B, error) {
	r := s.results[len(s.results)-1]
	if s.calls < len(s.results) {
		r = s.results[s.calls]
	}
	s.calls++
	return r.value, r.err
}
