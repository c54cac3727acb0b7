// File: cmd/fields.go
package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xkilldash9x/webtester/internal/pageobject"
)

// boundField adapts the typed page objects to string values for the CLI.
type boundField struct {
	kind     string
	selector string
	target   pageobject.Identifiable
	read     func(ctx context.Context) (string, error)
	write    func(ctx context.Context, value string) error
	bounds   func(ctx context.Context) (min, max *int, err error)
}

// fieldValue is one line of command output.
type fieldValue struct {
	Kind     string `json:"kind"`
	Selector string `json:"selector"`
	Value    string `json:"value"`
	Min      *int   `json:"min,omitempty"`
	Max      *int   `json:"max,omitempty"`
}

var fieldBinders = map[string]func(f *pageobject.Factory, selector string) *boundField{
	"text": func(f *pageobject.Factory, selector string) *boundField {
		field := f.TextField(selector)
		return &boundField{target: field, read: field.Text, write: field.SetText}
	},
	"email": func(f *pageobject.Factory, selector string) *boundField {
		field := f.EmailField(selector)
		return &boundField{target: field, read: field.Email, write: field.SetEmail}
	},
	"url": func(f *pageobject.Factory, selector string) *boundField {
		field := f.URLField(selector)
		return &boundField{target: field, read: field.URL, write: field.SetURL}
	},
	"color": func(f *pageobject.Factory, selector string) *boundField {
		field := f.ColorField(selector)
		return &boundField{
			target: field,
			read: func(ctx context.Context) (string, error) {
				c, err := field.Color(ctx)
				if err != nil {
					return "", err
				}
				return c.Hex(), nil
			},
			write: func(ctx context.Context, value string) error {
				c, err := pageobject.ParseColor(value)
				if err != nil {
					return err
				}
				return field.SetColor(ctx, c)
			},
		}
	},
	"range": func(f *pageobject.Factory, selector string) *boundField {
		field := f.RangeField(selector)
		return &boundField{
			target: field,
			read: func(ctx context.Context) (string, error) {
				v, err := field.Range(ctx)
				if err != nil || v == nil {
					return "", err
				}
				return strconv.Itoa(*v), nil
			},
			write: func(ctx context.Context, value string) error {
				n, err := strconv.Atoi(strings.TrimSpace(value))
				if err != nil {
					return fmt.Errorf("range value '%s' is not an integer: %w", value, err)
				}
				return field.SetRange(ctx, n)
			},
			bounds: func(ctx context.Context) (*int, *int, error) {
				lo, err := field.MinRange(ctx)
				if err != nil {
					return nil, nil, err
				}
				hi, err := field.MaxRange(ctx)
				return lo, hi, err
			},
		}
	},
}

func fieldKinds() string {
	kinds := make([]string, 0, len(fieldBinders))
	for k := range fieldBinders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return strings.Join(kinds, ", ")
}

// fieldRef names a field as given on the command line, "kind:selector".
type fieldRef struct {
	kind     string
	selector string
}

func parseFieldRef(ref string) (fieldRef, error) {
	kind, selector, ok := strings.Cut(ref, ":")
	kind = strings.ToLower(strings.TrimSpace(kind))
	selector = strings.TrimSpace(selector)
	if !ok || selector == "" {
		return fieldRef{}, fmt.Errorf("field '%s' must have the form kind:selector", ref)
	}
	if _, known := fieldBinders[kind]; !known {
		return fieldRef{}, fmt.Errorf("unknown field kind '%s' (want one of %s)", kind, fieldKinds())
	}
	return fieldRef{kind: kind, selector: selector}, nil
}

// bind creates the page object for the reference.
func (r fieldRef) bind(f *pageobject.Factory) *boundField {
	b := fieldBinders[r.kind](f, r.selector)
	b.kind, b.selector = r.kind, r.selector
	return b
}

// splitAssignment splits "selector=value" at the first '=' outside of brackets
// and quotes, so attribute selectors such as input[name=q] keep their '='.
func splitAssignment(s string) (selector, value string, err error) {
	depth := 0
	var quote rune
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '[':
			depth++
		case r == ']':
			if depth > 0 {
				depth--
			}
		case r == '=' && depth == 0:
			if i == 0 {
				return "", "", fmt.Errorf("assignment '%s' has an empty selector", s)
			}
			return s[:i], s[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("assignment '%s' must have the form selector=value", s)
}

func (b *boundField) snapshot(ctx context.Context) (fieldValue, error) {
	out := fieldValue{Kind: b.kind, Selector: b.selector}
	value, err := b.read(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to read %s field '%s': %w", b.kind, b.selector, err)
	}
	out.Value = value
	if b.bounds != nil {
		if out.Min, out.Max, err = b.bounds(ctx); err != nil {
			return out, fmt.Errorf("failed to read bounds of '%s': %w", b.selector, err)
		}
	}
	return out, nil
}
