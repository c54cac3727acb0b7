// internal/pageobject/pageobject.go
package pageobject

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chromedp/cdproto/cdp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webtester/internal/action"
	"github.com/xkilldash9x/webtester/internal/events"
)

// Factory creates page objects sharing one driver, event sink and waiter.
type Factory struct {
	driver Driver
	sink   action.EventSink
	waiter action.Waiter
	logger *zap.Logger
	opts   []action.Option
}

// NewFactory creates a Factory. Template options are applied to the template
// of every page object it creates.
func NewFactory(driver Driver, sink action.EventSink, waiter action.Waiter, logger *zap.Logger, opts ...action.Option) *Factory {
	if driver == nil {
		panic("page object factory created with nil driver")
	}
	if sink == nil {
		panic("page object factory created with nil event sink")
	}
	if waiter == nil {
		panic("page object factory created with nil waiter")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		driver: driver,
		sink:   sink,
		waiter: waiter,
		logger: logger.Named("pageobject"),
		opts:   opts,
	}
}

// PageObject is a handle on the element matched by a CSS selector. The node is
// resolved lazily and cached until it is invalidated.
type PageObject struct {
	selector string
	driver   Driver
	sink     action.EventSink
	logger   *zap.Logger
	template *action.Template

	mu       sync.Mutex
	node     cdp.NodeID
	resolved bool

	used atomic.Bool
}

// PageObject creates a plain page object for selector.
func (f *Factory) PageObject(selector string) *PageObject {
	p := &PageObject{
		selector: selector,
		driver:   f.driver,
		sink:     f.sink,
		logger:   f.logger.With(zap.String("selector", selector)),
	}
	p.template = action.NewTemplate(p, f.sink, f.waiter, f.logger, f.opts...)
	return p
}

// Identity returns the selector the page object was created with.
func (p *PageObject) Identity() string { return p.selector }

func (p *PageObject) String() string { return p.selector }

// Invalidate drops the cached node so the next access resolves the selector again.
func (p *PageObject) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolved = false
	p.node = 0
}

// Used reports whether a field action has completed on this page object.
func (p *PageObject) Used() bool { return p.used.Load() }

// IsPresent reports whether the selector currently resolves to a live node. A
// missing or detached node is reported as absent, not as an error.
func (p *PageObject) IsPresent(ctx context.Context) (bool, error) {
	id, err := p.nodeID(ctx)
	if err == nil {
		// A cached id can outlive its node; touching it proves liveness.
		_, err = p.driver.TagName(ctx, id)
	}
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound), errors.Is(err, action.ErrStale):
		p.Invalidate()
		return false, nil
	default:
		return false, err
	}
}

// IsVisible reports whether the element is rendered.
func (p *PageObject) IsVisible(ctx context.Context) (bool, error) {
	return action.Execute(ctx, p.template, func(ctx context.Context, _ action.Target) (bool, error) {
		id, err := p.nodeID(ctx)
		if err != nil {
			return false, err
		}
		return p.driver.IsVisible(ctx, id)
	})
}

// IsEnabled reports whether the element accepts input.
func (p *PageObject) IsEnabled(ctx context.Context) (bool, error) {
	return action.Execute(ctx, p.template, func(ctx context.Context, _ action.Target) (bool, error) {
		id, err := p.nodeID(ctx)
		if err != nil {
			return false, err
		}
		return p.driver.IsEnabled(ctx, id)
	})
}

// Attribute returns the value of the named attribute, or "" when it is absent.
func (p *PageObject) Attribute(ctx context.Context, name string) (string, error) {
	return action.Execute(ctx, p.template, func(ctx context.Context, _ action.Target) (string, error) {
		return p.attribute(ctx, name)
	})
}

// TagName returns the lower case tag name of the element.
func (p *PageObject) TagName(ctx context.Context) (string, error) {
	return action.Execute(ctx, p.template, func(ctx context.Context, _ action.Target) (string, error) {
		id, err := p.nodeID(ctx)
		if err != nil {
			return "", err
		}
		return p.driver.TagName(ctx, id)
	})
}

func (p *PageObject) nodeID(ctx context.Context) (cdp.NodeID, error) {
	p.mu.Lock()
	if p.resolved {
		id := p.node
		p.mu.Unlock()
		return id, nil
	}
	p.mu.Unlock()

	id, err := p.driver.Resolve(ctx, p.selector)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	p.node, p.resolved = id, true
	p.mu.Unlock()
	return id, nil
}

func (p *PageObject) attribute(ctx context.Context, name string) (string, error) {
	id, err := p.nodeID(ctx)
	if err != nil {
		return "", err
	}
	value, _, err := p.driver.Attribute(ctx, id, name)
	return value, err
}

func (p *PageObject) value(ctx context.Context) (string, error) {
	id, err := p.nodeID(ctx)
	if err != nil {
		return "", err
	}
	return p.driver.Value(ctx, id)
}

// readValue returns the value property through the template.
func (p *PageObject) readValue(ctx context.Context) (string, error) {
	return action.Execute(ctx, p.template, func(ctx context.Context, _ action.Target) (string, error) {
		return p.value(ctx)
	})
}

// interactable resolves the node and asserts that it is enabled and visible.
func (p *PageObject) interactable(ctx context.Context) (cdp.NodeID, error) {
	id, err := p.nodeID(ctx)
	if err != nil {
		return 0, err
	}
	enabled, err := p.driver.IsEnabled(ctx, id)
	if err != nil {
		return 0, err
	}
	if !enabled {
		return 0, fmt.Errorf("%s: %w", p.selector, ErrDisabled)
	}
	visible, err := p.driver.IsVisible(ctx, id)
	if err != nil {
		return 0, err
	}
	if !visible {
		return 0, fmt.Errorf("%s: %w", p.selector, action.ErrInvisible)
	}
	return id, nil
}

// change runs a value changing action. It asserts the element is interactable,
// captures the value before and after act, then logs, fires the event built by
// report and marks the page object as used.
func (p *PageObject) change(ctx context.Context, act func(ctx context.Context, id cdp.NodeID) error, report func(before, after string) events.Event) error {
	return p.template.Do(ctx, func(ctx context.Context, _ action.Target) error {
		id, err := p.interactable(ctx)
		if err != nil {
			return err
		}
		before, err := p.driver.Value(ctx, id)
		if err != nil {
			return err
		}
		if err := act(ctx, id); err != nil {
			return err
		}
		after, err := p.driver.Value(ctx, id)
		if err != nil {
			return err
		}

		event := report(before, after)
		p.logger.Debug("Field changed.", zap.String("event", string(event.Type())), zap.String("detail", event.Message()))
		p.sink.Fire(event)
		p.used.Store(true)
		return nil
	})
}
