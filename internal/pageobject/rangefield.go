// internal/pageobject/rangefield.go
package pageobject

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xkilldash9x/webtester/internal/action"
	"github.com/xkilldash9x/webtester/internal/events"
)

// RangeField is an input of type range.
type RangeField struct {
	*TextField
}

// RangeField creates a range field for selector.
func (f *Factory) RangeField(selector string) *RangeField {
	return &RangeField{TextField: &TextField{PageObject: f.PageObject(selector), field: events.FieldText}}
}

// Range returns the current value, or nil when the value is blank.
func (r *RangeField) Range(ctx context.Context) (*int, error) {
	value, err := r.readValue(ctx)
	if err != nil {
		return nil, err
	}
	return parseOptionalInt("value", value)
}

// MinRange returns the min attribute, or nil when it is blank or absent.
func (r *RangeField) MinRange(ctx context.Context) (*int, error) {
	return r.intAttribute(ctx, "min")
}

// MaxRange returns the max attribute, or nil when it is blank or absent.
func (r *RangeField) MaxRange(ctx context.Context) (*int, error) {
	return r.intAttribute(ctx, "max")
}

// Reset sets the value back to 0.
func (r *RangeField) Reset(ctx context.Context) error {
	return r.scripted(ctx, "0", func(before, after string) events.Event {
		return events.NewValueClearedEvent(r, events.FieldRange, before, after)
	})
}

// SetRange resets the field and then assigns value. The browser clamps values
// outside [min, max], so the resulting value may differ from the requested one.
func (r *RangeField) SetRange(ctx context.Context, value int) error {
	if err := r.Reset(ctx); err != nil {
		return err
	}
	requested := strconv.Itoa(value)
	return r.scripted(ctx, requested, func(before, after string) events.Event {
		return events.NewValueSetEvent(r, events.FieldRange, before, after, requested)
	})
}

func (r *RangeField) IsCorrectElement(ctx context.Context) (bool, error) {
	return r.matches(ctx, "range")
}

func (r *RangeField) intAttribute(ctx context.Context, name string) (*int, error) {
	value, err := action.Execute(ctx, r.template, func(ctx context.Context, _ action.Target) (string, error) {
		return r.attribute(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return parseOptionalInt(name, value)
}

func parseOptionalInt(name, value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("range %s '%s' is not an integer: %w", name, value, err)
	}
	return &n, nil
}
