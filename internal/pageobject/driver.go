// internal/pageobject/driver.go
// Package pageobject models form fields of a live page. Every interaction runs
// through an action template, so stale element references are recovered once
// and terminal failures are reported as events.
package pageobject

import (
	"context"
	"errors"

	"github.com/chromedp/cdproto/cdp"
)

var (
	// ErrNotFound is returned by a Driver when a selector matches no element.
	ErrNotFound = errors.New("no element matches selector")
	// ErrDisabled is returned when a field action targets a disabled element.
	ErrDisabled = errors.New("element is disabled")
	// ErrWrongElement is returned by Verify when the element is not of the expected kind.
	ErrWrongElement = errors.New("element is not of the expected kind")
)

// Driver is the browser facing side of a page object. Node ids are only valid
// until the document changes; implementations report operations on a detached
// node with an error wrapping action.ErrStale.
type Driver interface {
	// Resolve returns the first node matching the CSS selector or ErrNotFound.
	Resolve(ctx context.Context, selector string) (cdp.NodeID, error)
	// TagName returns the lower case tag name of the node.
	TagName(ctx context.Context, id cdp.NodeID) (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, id cdp.NodeID, name string) (string, bool, error)
	// Value returns the current value property of a form control.
	Value(ctx context.Context, id cdp.NodeID) (string, error)
	IsVisible(ctx context.Context, id cdp.NodeID) (bool, error)
	IsEnabled(ctx context.Context, id cdp.NodeID) (bool, error)
	// Clear empties the control the way a user would.
	Clear(ctx context.Context, id cdp.NodeID) error
	// SendKeys focuses the node and types text at the end of its value.
	SendKeys(ctx context.Context, id cdp.NodeID, text string) error
	// SetValue assigns the value property through script, bypassing keyboard input.
	SetValue(ctx context.Context, id cdp.NodeID, value string) error
}
