// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/webtester/internal/action"
	"github.com/xkilldash9x/webtester/internal/config"
	"github.com/xkilldash9x/webtester/internal/observability"
	"github.com/xkilldash9x/webtester/internal/pageobject"
)

// -- Fake Page --

type pageNode struct {
	tag     string
	attrs   map[string]string
	value   string
	visible bool
	enabled bool
}

// fakePage is an in-memory tab standing in for Chrome.
type fakePage struct {
	mu         sync.Mutex
	nodes      map[cdp.NodeID]*pageNode
	bySelector map[string]cdp.NodeID
	navigated  []string
	closed     int
}

func newFakePage() *fakePage {
	return &fakePage{nodes: map[cdp.NodeID]*pageNode{}, bySelector: map[string]cdp.NodeID{}}
}

func (p *fakePage) input(selector, kind, value string, attrs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := &pageNode{tag: "input", attrs: map[string]string{"type": kind}, value: value, visible: true, enabled: true}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.attrs[attrs[i]] = attrs[i+1]
	}
	id := cdp.NodeID(len(p.nodes) + 1)
	p.nodes[id] = n
	p.bySelector[selector] = id
}

func (p *fakePage) valueOf(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nodes[p.bySelector[selector]].value
}

func (p *fakePage) with(id cdp.NodeID, fn func(n *pageNode)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.nodes[id]
	if !ok {
		return fmt.Errorf("no node %d: %w", id, action.ErrStale)
	}
	fn(n)
	return nil
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

func (p *fakePage) Resolve(ctx context.Context, selector string) (cdp.NodeID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.bySelector[selector]
	if !ok {
		return 0, fmt.Errorf("%s: %w", selector, pageobject.ErrNotFound)
	}
	return id, nil
}

func (p *fakePage) TagName(ctx context.Context, id cdp.NodeID) (tag string, err error) {
	err = p.with(id, func(n *pageNode) { tag = n.tag })
	return tag, err
}

func (p *fakePage) Attribute(ctx context.Context, id cdp.NodeID, name string) (v string, ok bool, err error) {
	err = p.with(id, func(n *pageNode) { v, ok = n.attrs[name] })
	return v, ok, err
}

func (p *fakePage) Value(ctx context.Context, id cdp.NodeID) (v string, err error) {
	err = p.with(id, func(n *pageNode) { v = n.value })
	return v, err
}

func (p *fakePage) IsVisible(ctx context.Context, id cdp.NodeID) (v bool, err error) {
	err = p.with(id, func(n *pageNode) { v = n.visible })
	return v, err
}

func (p *fakePage) IsEnabled(ctx context.Context, id cdp.NodeID) (v bool, err error) {
	err = p.with(id, func(n *pageNode) { v = n.enabled })
	return v, err
}

func (p *fakePage) Clear(ctx context.Context, id cdp.NodeID) error {
	return p.with(id, func(n *pageNode) { n.value = "" })
}

func (p *fakePage) SendKeys(ctx context.Context, id cdp.NodeID, text string) error {
	return p.with(id, func(n *pageNode) { n.value += text })
}

func (p *fakePage) SetValue(ctx context.Context, id cdp.NodeID, value string) error {
	return p.with(id, func(n *pageNode) { n.value = value })
}

// -- Command Harness --

// resetForTest gives every test a fresh command tree, a silent logger and the
// fake page in place of a browser.
func resetForTest(t *testing.T, page *fakePage) {
	t.Helper()

	cfgFile, verbose = "", false
	observability.ResetForTest()
	observability.Initialize(config.LoggerConfig{Level: "fatal", Format: "json"}, zapcore.AddSync(io.Discard))

	original := newDriver
	newDriver = func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (pageDriver, error) {
		if page == nil {
			return nil, fmt.Errorf("no browser available in tests")
		}
		return page, nil
	}
	t.Cleanup(func() {
		newDriver = original
		observability.ResetForTest()
	})

	// Keep tests away from any config.yaml in the working directory.
	t.Chdir(t.TempDir())

	rootCmd = newRootCmd()
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}
