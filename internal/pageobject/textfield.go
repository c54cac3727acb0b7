// internal/pageobject/textfield.go
package pageobject

import (
	"context"

	"github.com/chromedp/cdproto/cdp"

	"github.com/xkilldash9x/webtester/internal/events"
)

// TextField is a single line text input.
type TextField struct {
	*PageObject
	field events.Field
}

// TextField creates a text field for selector.
func (f *Factory) TextField(selector string) *TextField {
	return &TextField{PageObject: f.PageObject(selector), field: events.FieldText}
}

// Text returns the current value of the field.
func (t *TextField) Text(ctx context.Context) (string, error) {
	return t.readValue(ctx)
}

// SetText replaces the value by clearing the field and typing text.
func (t *TextField) SetText(ctx context.Context, text string) error {
	return t.change(ctx,
		func(ctx context.Context, id cdp.NodeID) error {
			if err := t.driver.Clear(ctx, id); err != nil {
				return err
			}
			return t.driver.SendKeys(ctx, id, text)
		},
		func(before, after string) events.Event {
			return events.NewValueSetEvent(t, t.field, before, after, text)
		})
}

// AppendText types text at the end of the current value.
func (t *TextField) AppendText(ctx context.Context, text string) error {
	return t.change(ctx,
		func(ctx context.Context, id cdp.NodeID) error {
			return t.driver.SendKeys(ctx, id, text)
		},
		func(before, after string) events.Event {
			return events.NewTextAppendedEvent(t, before, after, text)
		})
}

// ClearText empties the field.
func (t *TextField) ClearText(ctx context.Context) error {
	return t.change(ctx, t.driver.Clear,
		func(before, after string) events.Event {
			return events.NewValueClearedEvent(t, t.field, before, after)
		})
}

// IsCorrectElement reports whether the element is a text like input.
func (t *TextField) IsCorrectElement(ctx context.Context) (bool, error) {
	return t.matches(ctx, "", "text", "password", "search", "tel")
}

// scripted replaces the value through script, bypassing keyboard input.
func (t *TextField) scripted(ctx context.Context, value string, report func(before, after string) events.Event) error {
	return t.change(ctx,
		func(ctx context.Context, id cdp.NodeID) error {
			return t.driver.SetValue(ctx, id, value)
		},
		report)
}
