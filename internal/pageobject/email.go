// internal/pageobject/email.go
package pageobject

import (
	"context"

	"github.com/chromedp/cdproto/cdp"

	"github.com/xkilldash9x/webtester/internal/events"
)

// EmailField is an input of type email.
type EmailField struct {
	*PageObject
}

// EmailField creates an email field for selector.
func (f *Factory) EmailField(selector string) *EmailField {
	return &EmailField{PageObject: f.PageObject(selector)}
}

// Email returns the current value of the field.
func (e *EmailField) Email(ctx context.Context) (string, error) {
	return e.readValue(ctx)
}

// SetEmail clears the field and types address.
func (e *EmailField) SetEmail(ctx context.Context, address string) error {
	return e.change(ctx,
		func(ctx context.Context, id cdp.NodeID) error {
			if err := e.driver.Clear(ctx, id); err != nil {
				return err
			}
			return e.driver.SendKeys(ctx, id, address)
		},
		func(before, after string) events.Event {
			return events.NewValueSetEvent(e, events.FieldEmail, before, after, address)
		})
}

// Clear empties the field.
func (e *EmailField) Clear(ctx context.Context) error {
	return e.change(ctx, e.driver.Clear, func(before, after string) events.Event {
		return events.NewValueClearedEvent(e, events.FieldEmail, before, after)
	})
}

func (e *EmailField) IsCorrectElement(ctx context.Context) (bool, error) {
	return e.matches(ctx, "email")
}
