// internal/browser/executor.go
package browser

import (
	"context"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Executor is the narrow set of CDP calls the Browser needs. It exists so the
// driver logic can be tested without a browser.
type Executor interface {
	// QueryNodes returns the nodes currently matching a CSS selector, without waiting.
	QueryNodes(ctx context.Context, selector string) ([]*cdp.Node, error)
	// CallFunctionOn calls fn with the node as `this` and decodes the return value into res.
	CallFunctionOn(ctx context.Context, id cdp.NodeID, fn string, res any, args ...any) error
	// Focus focuses the node.
	Focus(ctx context.Context, id cdp.NodeID) error
	// Type sends key events for every rune of text to the focused element.
	Type(ctx context.Context, text string) error
	// Navigate loads url and waits for the body to be ready.
	Navigate(ctx context.Context, url string) error
}

// CDPExecutor is the production Executor. The contexts passed to it must carry
// a chromedp target.
type CDPExecutor struct{}

// NewCDPExecutor creates a new production-ready executor.
func NewCDPExecutor() *CDPExecutor {
	return &CDPExecutor{}
}

func (e *CDPExecutor) QueryNodes(ctx context.Context, selector string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	err := chromedp.Run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)))
	return nodes, err
}

func (e *CDPExecutor) CallFunctionOn(ctx context.Context, id cdp.NodeID, fn string, res any, args ...any) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(id).Do(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()

		return chromedp.CallFunctionOn(fn, res,
			func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
				return p.WithObjectID(obj.ObjectID)
			},
			args...,
		).Do(ctx)
	}))
}

func (e *CDPExecutor) Focus(ctx context.Context, id cdp.NodeID) error {
	return chromedp.Run(ctx, dom.Focus().WithNodeID(id))
}

func (e *CDPExecutor) Type(ctx context.Context, text string) error {
	return chromedp.Run(ctx, chromedp.KeyEvent(text))
}

func (e *CDPExecutor) Navigate(ctx context.Context, url string) error {
	return chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}
