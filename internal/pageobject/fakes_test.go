// internal/pageobject/fakes_test.go
package pageobject

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/webtester/internal/action"
	"github.com/xkilldash9x/webtester/internal/config"
	"github.com/xkilldash9x/webtester/internal/events"
	"github.com/xkilldash9x/webtester/internal/wait"
)

// -- Fake Driver --

type fakeNode struct {
	tag     string
	attrs   map[string]string
	value   string
	visible bool
	enabled bool
}

// fakeDriver is an in-memory document. Re-rendering a selector gives its node a
// new id, after which the old id behaves like a detached node.
type fakeDriver struct {
	mu         sync.Mutex
	nextID     cdp.NodeID
	nodes      map[cdp.NodeID]*fakeNode
	bySelector map[string]cdp.NodeID
	resolves   map[string]int

	// onAct runs after every successful Clear, SendKeys or SetValue.
	onAct func(selector string)
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		nodes:      make(map[cdp.NodeID]*fakeNode),
		bySelector: make(map[string]cdp.NodeID),
		resolves:   make(map[string]int),
	}
}

// input adds a visible, enabled input element.
func (d *fakeDriver) input(selector, kind, value string) *fakeNode {
	attrs := map[string]string{}
	if kind != "" {
		attrs["type"] = kind
	}
	return d.add(selector, &fakeNode{tag: "input", attrs: attrs, value: value, visible: true, enabled: true})
}

func (d *fakeDriver) add(selector string, n *fakeNode) *fakeNode {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.nodes[d.nextID] = n
	d.bySelector[selector] = d.nextID
	return n
}

// rerender replaces the node behind selector, keeping its state.
func (d *fakeDriver) rerender(selector string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	old := d.bySelector[selector]
	n := d.nodes[old]
	delete(d.nodes, old)
	d.nextID++
	d.nodes[d.nextID] = n
	d.bySelector[selector] = d.nextID
}

// remove detaches the node behind selector.
func (d *fakeDriver) remove(selector string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.nodes, d.bySelector[selector])
	delete(d.bySelector, selector)
}

func (d *fakeDriver) resolveCount(selector string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resolves[selector]
}

func (d *fakeDriver) node(id cdp.NodeID) (*fakeNode, error) {
	n, ok := d.nodes[id]
	if !ok {
		return nil, fmt.Errorf("could not find node with id %d: %w", id, action.ErrStale)
	}
	return n, nil
}

func (d *fakeDriver) selectorOf(id cdp.NodeID) string {
	for sel, nid := range d.bySelector {
		if nid == id {
			return sel
		}
	}
	return ""
}

func (d *fakeDriver) Resolve(ctx context.Context, selector string) (cdp.NodeID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resolves[selector]++
	id, ok := d.bySelector[selector]
	if !ok {
		return 0, fmt.Errorf("%s: %w", selector, ErrNotFound)
	}
	return id, nil
}

func (d *fakeDriver) TagName(ctx context.Context, id cdp.NodeID) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(id)
	if err != nil {
		return "", err
	}
	return n.tag, nil
}

func (d *fakeDriver) Attribute(ctx context.Context, id cdp.NodeID, name string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(id)
	if err != nil {
		return "", false, err
	}
	v, ok := n.attrs[name]
	return v, ok, nil
}

func (d *fakeDriver) Value(ctx context.Context, id cdp.NodeID) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(id)
	if err != nil {
		return "", err
	}
	return n.value, nil
}

func (d *fakeDriver) IsVisible(ctx context.Context, id cdp.NodeID) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(id)
	if err != nil {
		return false, err
	}
	return n.visible, nil
}

func (d *fakeDriver) IsEnabled(ctx context.Context, id cdp.NodeID) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(id)
	if err != nil {
		return false, err
	}
	return n.enabled, nil
}

func (d *fakeDriver) Clear(ctx context.Context, id cdp.NodeID) error {
	return d.mutate(id, func(n *fakeNode) { n.value = "" })
}

func (d *fakeDriver) SendKeys(ctx context.Context, id cdp.NodeID, text string) error {
	return d.mutate(id, func(n *fakeNode) { n.value += text })
}

func (d *fakeDriver) SetValue(ctx context.Context, id cdp.NodeID, value string) error {
	return d.mutate(id, func(n *fakeNode) {
		// Color inputs sanitize anything that is not a hex color to black.
		if n.attrs["type"] == "color" && (len(value) != 7 || !strings.HasPrefix(value, "#")) {
			value = defaultColor
		}
		n.value = value
	})
}

func (d *fakeDriver) mutate(id cdp.NodeID, fn func(n *fakeNode)) error {
	d.mu.Lock()
	n, err := d.node(id)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	fn(n)
	hook, sel := d.onAct, d.selectorOf(id)
	d.mu.Unlock()

	if hook != nil {
		hook(sel)
	}
	return nil
}

// -- Harness --

type fixture struct {
	driver  *fakeDriver
	bus     *events.Bus
	factory *Factory

	mu    sync.Mutex
	fired []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	fx := &fixture{driver: newFakeDriver(), bus: events.NewBus(logger)}
	fx.bus.Register(events.ListenerFunc(func(e events.Event) {
		fx.mu.Lock()
		defer fx.mu.Unlock()
		fx.fired = append(fx.fired, e)
	}))
	t.Cleanup(fx.bus.Shutdown)

	poller := wait.NewPoller(config.WaitConfig{Timeout: 200 * time.Millisecond, PollInterval: 5 * time.Millisecond}, logger)
	fx.factory = NewFactory(fx.driver, fx.bus, poller, logger)
	return fx
}

func (fx *fixture) events() []events.Event {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	return append([]events.Event(nil), fx.fired...)
}

func (fx *fixture) exceptions() []*events.ExceptionEvent {
	var out []*events.ExceptionEvent
	for _, e := range fx.events() {
		if ex, ok := e.(*events.ExceptionEvent); ok {
			out = append(out, ex)
		}
	}
	return out
}
