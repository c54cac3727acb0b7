// internal/pageobject/url.go
package pageobject

import (
	"context"

	"github.com/xkilldash9x/webtester/internal/events"
)

// URLField is an input of type url.
type URLField struct {
	*TextField
}

// URLField creates a url field for selector.
func (f *Factory) URLField(selector string) *URLField {
	return &URLField{TextField: &TextField{PageObject: f.PageObject(selector), field: events.FieldText}}
}

// URL returns the current value of the field.
func (u *URLField) URL(ctx context.Context) (string, error) {
	return u.readValue(ctx)
}

// Reset empties the field.
func (u *URLField) Reset(ctx context.Context) error {
	return u.scripted(ctx, "", func(before, after string) events.Event {
		return events.NewValueClearedEvent(u, events.FieldURL, before, after)
	})
}

// SetURL resets the field and then assigns url. Each step fires its own event.
func (u *URLField) SetURL(ctx context.Context, url string) error {
	if err := u.Reset(ctx); err != nil {
		return err
	}
	return u.scripted(ctx, url, func(before, after string) events.Event {
		return events.NewValueSetEvent(u, events.FieldURL, before, after, url)
	})
}

func (u *URLField) IsCorrectElement(ctx context.Context) (bool, error) {
	return u.matches(ctx, "url")
}
