// internal/browser/browser_test.go
package browser

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/runtime"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/webtester/internal/action"
	"github.com/xkilldash9x/webtester/internal/pageobject"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// mockExecutor is a function-field fake of Executor.
type mockExecutor struct {
	QueryNodesFunc     func(ctx context.Context, selector string) ([]*cdp.Node, error)
	CallFunctionOnFunc func(ctx context.Context, id cdp.NodeID, fn string, args ...any) (any, error)
	FocusFunc          func(ctx context.Context, id cdp.NodeID) error
	TypeFunc           func(ctx context.Context, text string) error
	NavigateFunc       func(ctx context.Context, url string) error

	mu    sync.Mutex
	calls []string
}

func (m *mockExecutor) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockExecutor) QueryNodes(ctx context.Context, selector string) ([]*cdp.Node, error) {
	m.record("query")
	return m.QueryNodesFunc(ctx, selector)
}

// CallFunctionOn round trips the fake result through JSON into res, the way
// chromedp decodes values returned by value.
func (m *mockExecutor) CallFunctionOn(ctx context.Context, id cdp.NodeID, fn string, res any, args ...any) error {
	m.record("call")
	v, err := m.CallFunctionOnFunc(ctx, id, fn, args...)
	if err != nil || res == nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, res)
}

func (m *mockExecutor) Focus(ctx context.Context, id cdp.NodeID) error {
	m.record("focus")
	return m.FocusFunc(ctx, id)
}

func (m *mockExecutor) Type(ctx context.Context, text string) error {
	m.record("type")
	return m.TypeFunc(ctx, text)
}

func (m *mockExecutor) Navigate(ctx context.Context, url string) error {
	m.record("navigate")
	return m.NavigateFunc(ctx, url)
}

func newTestBrowser(t *testing.T, exec *mockExecutor) *Browser {
	t.Helper()
	b := NewWithExecutor(context.Background(), nil, exec, time.Second, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBrowser_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstMatch", func(t *testing.T) {
		exec := &mockExecutor{QueryNodesFunc: func(ctx context.Context, selector string) ([]*cdp.Node, error) {
			assert.Equal(t, "#email", selector)
			return []*cdp.Node{{NodeID: 7}, {NodeID: 9}}, nil
		}}
		id, err := newTestBrowser(t, exec).Resolve(ctx, "#email")
		require.NoError(t, err)
		assert.Equal(t, cdp.NodeID(7), id)
	})

	t.Run("NoMatch", func(t *testing.T) {
		exec := &mockExecutor{QueryNodesFunc: func(ctx context.Context, selector string) ([]*cdp.Node, error) {
			return nil, nil
		}}
		_, err := newTestBrowser(t, exec).Resolve(ctx, "#missing")
		require.ErrorIs(t, err, pageobject.ErrNotFound)
		assert.Equal(t, action.KindOther, action.Classify(err))
	})

	t.Run("ConcurrentLookupsShareOneQuery", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		var queries atomic.Int32
		release := make(chan struct{})
		exec := &mockExecutor{QueryNodesFunc: func(ctx context.Context, selector string) ([]*cdp.Node, error) {
			queries.Add(1)
			<-release
			return []*cdp.Node{{NodeID: 3}}, nil
		}}
		b := newTestBrowser(t, exec)

		const callers = 5
		var wg sync.WaitGroup
		ids := make([]cdp.NodeID, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id, err := b.Resolve(ctx, "#same")
				assert.NoError(t, err)
				ids[i] = id
			}(i)
		}
		// Give every caller time to join the in-flight lookup.
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), queries.Load())
		for _, id := range ids {
			assert.Equal(t, cdp.NodeID(3), id)
		}
	})

	t.Run("CancelledCallerDoesNotFailOthers", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		var queries atomic.Int32
		started := make(chan struct{})
		release := make(chan struct{})
		exec := &mockExecutor{QueryNodesFunc: func(ctx context.Context, selector string) ([]*cdp.Node, error) {
			if queries.Add(1) == 1 {
				close(started)
			}
			select {
			case <-release:
				return []*cdp.Node{{NodeID: 4}}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}}
		b := newTestBrowser(t, exec)

		first, cancelFirst := context.WithCancel(ctx)
		firstErr := make(chan error, 1)
		go func() {
			_, err := b.Resolve(first, "#shared")
			firstErr <- err
		}()
		<-started

		type result struct {
			id  cdp.NodeID
			err error
		}
		second := make(chan result, 1)
		go func() {
			id, err := b.Resolve(ctx, "#shared")
			second <- result{id, err}
		}()
		// Let the second caller join the in-flight lookup, then drop the first.
		time.Sleep(50 * time.Millisecond)
		cancelFirst()
		assert.ErrorIs(t, <-firstErr, context.Canceled)

		close(release)
		res := <-second
		require.NoError(t, res.err)
		assert.Equal(t, cdp.NodeID(4), res.id)
		assert.Equal(t, int32(1), queries.Load())
	})

	t.Run("CancelledBeforeLookup", func(t *testing.T) {
		exec := &mockExecutor{QueryNodesFunc: func(ctx context.Context, selector string) ([]*cdp.Node, error) {
			t.Fatal("no lookup expected")
			return nil, nil
		}}
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := newTestBrowser(t, exec).Resolve(cancelled, "#x")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBrowser_Reads(t *testing.T) {
	ctx := context.Background()
	exec := &mockExecutor{CallFunctionOnFunc: func(ctx context.Context, id cdp.NodeID, fn string, args ...any) (any, error) {
		switch fn {
		case jsTagName:
			return "input", nil
		case jsAttribute:
			if args[0] == "type" {
				return attributeResult{Present: true, Value: "range"}, nil
			}
			return attributeResult{}, nil
		case jsValue:
			return "42", nil
		case jsIsVisible:
			return true, nil
		case jsIsEnabled:
			return false, nil
		}
		return nil, errors.New("unexpected script")
	}}
	b := newTestBrowser(t, exec)

	tag, err := b.TagName(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "input", tag)

	kind, ok, err := b.Attribute(ctx, 1, "type")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "range", kind)

	_, ok, err = b.Attribute(ctx, 1, "max")
	require.NoError(t, err)
	assert.False(t, ok)

	value, err := b.Value(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "42", value)

	visible, err := b.IsVisible(ctx, 1)
	require.NoError(t, err)
	assert.True(t, visible)

	enabled, err := b.IsEnabled(ctx, 1)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestBrowser_Writes(t *testing.T) {
	ctx := context.Background()

	t.Run("SetValueAndClearUseScript", func(t *testing.T) {
		var assigned []any
		exec := &mockExecutor{CallFunctionOnFunc: func(ctx context.Context, id cdp.NodeID, fn string, args ...any) (any, error) {
			require.Equal(t, jsSetValue, fn)
			assigned = append(assigned, args[0])
			return nil, nil
		}}
		b := newTestBrowser(t, exec)

		require.NoError(t, b.SetValue(ctx, 1, "#ff0000"))
		require.NoError(t, b.Clear(ctx, 1))
		assert.Equal(t, []any{"#ff0000", ""}, assigned)
	})

	t.Run("SendKeysFocusesThenTypes", func(t *testing.T) {
		var typed string
		exec := &mockExecutor{
			FocusFunc: func(ctx context.Context, id cdp.NodeID) error { return nil },
			CallFunctionOnFunc: func(ctx context.Context, id cdp.NodeID, fn string, args ...any) (any, error) {
				assert.Equal(t, jsCaretToEnd, fn)
				return nil, nil
			},
			TypeFunc: func(ctx context.Context, text string) error {
				typed = text
				return nil
			},
		}
		b := newTestBrowser(t, exec)

		require.NoError(t, b.SendKeys(ctx, 1, "hello"))
		assert.Equal(t, "hello", typed)
		assert.Equal(t, []string{"focus", "call", "type"}, exec.calls)
	})

	t.Run("SendKeysOnRemovedNodeIsStale", func(t *testing.T) {
		exec := &mockExecutor{FocusFunc: func(ctx context.Context, id cdp.NodeID) error {
			return errors.New("Could not find node with given id (-32000)")
		}}
		b := newTestBrowser(t, exec)

		err := b.SendKeys(ctx, 1, "hello")
		assert.ErrorIs(t, err, action.ErrStale)
		assert.Equal(t, []string{"focus"}, exec.calls)
	})
}

func TestBrowser_DetachedScriptIsStale(t *testing.T) {
	exec := &mockExecutor{CallFunctionOnFunc: func(ctx context.Context, id cdp.NodeID, fn string, args ...any) (any, error) {
		return nil, &runtime.ExceptionDetails{
			Text:      "Uncaught",
			Exception: &runtime.RemoteObject{Description: "Error: node is detached from the document"},
		}
	}}
	_, err := newTestBrowser(t, exec).Value(context.Background(), 1)
	assert.ErrorIs(t, err, action.ErrStale)
}

func TestBrowser_Cancellation(t *testing.T) {
	t.Run("CallerCancellationStopsTheCall", func(t *testing.T) {
		exec := &mockExecutor{NavigateFunc: func(ctx context.Context, url string) error {
			<-ctx.Done()
			return ctx.Err()
		}}
		b := newTestBrowser(t, exec)
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(10*time.Millisecond, cancel)

		err := b.Navigate(ctx, "https://example.com")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("ActionTimeout", func(t *testing.T) {
		exec := &mockExecutor{NavigateFunc: func(ctx context.Context, url string) error {
			<-ctx.Done()
			return ctx.Err()
		}}
		b := NewWithExecutor(context.Background(), nil, exec, 20*time.Millisecond, zaptest.NewLogger(t))

		err := b.Navigate(context.Background(), "https://example.com")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotErrorIs(t, err, action.ErrStale)
	})

	t.Run("AlreadyCancelledNeverCallsTheExecutor", func(t *testing.T) {
		exec := &mockExecutor{}
		b := newTestBrowser(t, exec)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := b.Navigate(ctx, "https://example.com")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, exec.calls)
	})
}

func TestBrowser_CloseIsIdempotent(t *testing.T) {
	closed := 0
	b := NewWithExecutor(context.Background(), func() { closed++ }, &mockExecutor{}, 0, nil)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 1, closed)
	assert.Equal(t, defaultActionTimeout, b.actionTimeout)
}

func TestNewWithExecutor_PanicsWithoutExecutor(t *testing.T) {
	assert.Panics(t, func() { NewWithExecutor(context.Background(), nil, nil, 0, nil) })
}
