// internal/pageobject/identify.go
package pageobject

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/webtester/internal/action"
)

// Identifiable is implemented by every field that can check it is bound to the
// right kind of element.
type Identifiable interface {
	action.Target
	IsCorrectElement(ctx context.Context) (bool, error)
}

// Verify returns an error wrapping ErrWrongElement when the element matched by
// the field's selector is not of the kind the field models.
func Verify(ctx context.Context, field Identifiable) error {
	ok, err := field.IsCorrectElement(ctx)
	if err != nil {
		return fmt.Errorf("failed to identify '%s': %w", field.Identity(), err)
	}
	if !ok {
		return fmt.Errorf("'%s': %w", field.Identity(), ErrWrongElement)
	}
	return nil
}

// matches reports whether the element is an input whose type attribute, lower
// cased, is one of types. An empty entry matches a missing type attribute.
func (p *PageObject) matches(ctx context.Context, types ...string) (bool, error) {
	return action.Execute(ctx, p.template, func(ctx context.Context, _ action.Target) (bool, error) {
		id, err := p.nodeID(ctx)
		if err != nil {
			return false, err
		}
		tag, err := p.driver.TagName(ctx, id)
		if err != nil {
			return false, err
		}
		if !strings.EqualFold(tag, "input") {
			return false, nil
		}
		kind, _, err := p.driver.Attribute(ctx, id, "type")
		if err != nil {
			return false, err
		}
		kind = strings.ToLower(kind)
		for _, t := range types {
			if kind == t {
				return true, nil
			}
		}
		return false, nil
	})
}
