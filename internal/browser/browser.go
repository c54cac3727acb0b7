// internal/browser/browser.go
// Package browser drives a single Chrome tab over the DevTools protocol and
// exposes it to page objects as a pageobject.Driver.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xkilldash9x/webtester/internal/config"
	"github.com/xkilldash9x/webtester/internal/pageobject"
)

const defaultActionTimeout = 15 * time.Second

// Browser is a Chrome tab. It is safe for concurrent use.
type Browser struct {
	exec          Executor
	logger        *zap.Logger
	actionTimeout time.Duration

	// tabCtx carries the chromedp target; every call derives from it.
	tabCtx context.Context
	cancel context.CancelFunc

	resolveGroup singleflight.Group
	closeOnce    sync.Once
}

var _ pageobject.Driver = (*Browser)(nil)

// New launches Chrome with the configured options and opens one tab. The
// launch is abandoned after cfg.LaunchTimeout.
func New(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("browser")
	log.Info("Launching browser.", zap.Bool("headless", cfg.Headless), zap.String("exec_path", cfg.ExecPath))

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, AllocatorOptions(cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Sugar().Debugf),
		chromedp.WithErrorf(log.Sugar().Debugf),
	)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	// The first Run starts the browser and binds its lifetime to tabCtx, so the
	// timeout is enforced from outside instead of through a child context.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()

	launchTimeout := cfg.LaunchTimeout
	if launchTimeout <= 0 {
		launchTimeout = 30 * time.Second
	}
	timer := time.NewTimer(launchTimeout)
	defer timer.Stop()

	select {
	case err := <-started:
		if err != nil {
			cancel()
			return nil, fmt.Errorf("browser failed to start: %w", err)
		}
	case <-timer.C:
		cancel()
		return nil, fmt.Errorf("browser did not start within %v", launchTimeout)
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}

	b := newBrowser(tabCtx, cancel, NewCDPExecutor(), cfg.ActionTimeout, logger)
	log.Info("Browser launched successfully.")
	return b, nil
}

// NewWithExecutor creates a Browser on top of an existing executor. tabCtx
// must satisfy the executor's requirements; cancel, if not nil, is called by Close.
func NewWithExecutor(tabCtx context.Context, cancel context.CancelFunc, exec Executor, actionTimeout time.Duration, logger *zap.Logger) *Browser {
	if exec == nil {
		panic("browser created with nil executor")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return newBrowser(tabCtx, cancel, exec, actionTimeout, logger)
}

func newBrowser(tabCtx context.Context, cancel context.CancelFunc, exec Executor, actionTimeout time.Duration, logger *zap.Logger) *Browser {
	if actionTimeout <= 0 {
		actionTimeout = defaultActionTimeout
	}
	if cancel == nil {
		cancel = func() {}
	}
	return &Browser{
		exec:          exec,
		logger:        logger.Named("browser"),
		actionTimeout: actionTimeout,
		tabCtx:        tabCtx,
		cancel:        cancel,
	}
}

// Close shuts the tab and the browser down. It is safe to call more than once.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		b.logger.Debug("Closing browser.")
		b.cancel()
	})
	return nil
}

// run executes fn in a context derived from the tab that is also cancelled
// when ctx is, bounded by the action timeout. Failures are classified for op.
func (b *Browser) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(b.tabCtx, b.actionTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := fn(runCtx)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return classify(op, err)
}

// Navigate loads url in the tab.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.logger.Debug("Navigating.", zap.String("url", url))
	return b.run(ctx, "navigate to "+url, func(ctx context.Context) error {
		return b.exec.Navigate(ctx, url)
	})
}

// Resolve returns the first node matching selector. Concurrent lookups of the
// same selector share one round trip. The shared lookup is detached from every
// caller's cancellation and bounded by the action timeout only; each caller
// stops waiting when its own ctx is done.
func (b *Browser) Resolve(ctx context.Context, selector string) (cdp.NodeID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	shared := context.WithoutCancel(ctx)
	ch := b.resolveGroup.DoChan(selector, func() (any, error) {
		var id cdp.NodeID
		err := b.run(shared, "resolve "+selector, func(ctx context.Context) error {
			nodes, err := b.exec.QueryNodes(ctx, selector)
			if err != nil {
				return err
			}
			if len(nodes) == 0 {
				return fmt.Errorf("%s: %w", selector, pageobject.ErrNotFound)
			}
			id = nodes[0].NodeID
			return nil
		})
		return id, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(cdp.NodeID), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (b *Browser) call(ctx context.Context, op string, id cdp.NodeID, fn string, res any, args ...any) error {
	return b.run(ctx, op, func(ctx context.Context) error {
		return b.exec.CallFunctionOn(ctx, id, fn, res, args...)
	})
}

func (b *Browser) TagName(ctx context.Context, id cdp.NodeID) (string, error) {
	var tag string
	err := b.call(ctx, "read tag name", id, jsTagName, &tag)
	return tag, err
}

func (b *Browser) Attribute(ctx context.Context, id cdp.NodeID, name string) (string, bool, error) {
	var res attributeResult
	if err := b.call(ctx, "read attribute "+name, id, jsAttribute, &res, name); err != nil {
		return "", false, err
	}
	return res.Value, res.Present, nil
}

func (b *Browser) Value(ctx context.Context, id cdp.NodeID) (string, error) {
	var value string
	err := b.call(ctx, "read value", id, jsValue, &value)
	return value, err
}

func (b *Browser) IsVisible(ctx context.Context, id cdp.NodeID) (bool, error) {
	var visible bool
	err := b.call(ctx, "check visibility", id, jsIsVisible, &visible)
	return visible, err
}

func (b *Browser) IsEnabled(ctx context.Context, id cdp.NodeID) (bool, error) {
	var enabled bool
	err := b.call(ctx, "check enabled", id, jsIsEnabled, &enabled)
	return enabled, err
}

func (b *Browser) Clear(ctx context.Context, id cdp.NodeID) error {
	return b.call(ctx, "clear", id, jsSetValue, nil, "")
}

func (b *Browser) SetValue(ctx context.Context, id cdp.NodeID, value string) error {
	return b.call(ctx, "set value", id, jsSetValue, nil, value)
}

func (b *Browser) SendKeys(ctx context.Context, id cdp.NodeID, text string) error {
	return b.run(ctx, "send keys", func(ctx context.Context) error {
		if err := b.exec.Focus(ctx, id); err != nil {
			return err
		}
		if err := b.exec.CallFunctionOn(ctx, id, jsCaretToEnd, nil); err != nil {
			return err
		}
		return b.exec.Type(ctx, text)
	})
}
