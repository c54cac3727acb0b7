// internal/pageobject/color.go
package pageobject

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/xkilldash9x/webtester/internal/events"
)

// defaultColor is what a color input reports when it has no value.
const defaultColor = "#000000"

// Color is an sRGB color with an alpha channel in [0, 1].
type Color struct {
	colorful.Color
	Alpha float64
}

// RGB returns an opaque color from 8 bit channels.
func RGB(r, g, b uint8) Color {
	return Color{Color: colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}, Alpha: 1}
}

// ParseColor parses the notations browsers report for colors: "#rgb",
// "#rrggbb", "rgb(r, g, b)" and "rgba(r, g, b, a)". Channels may be given as
// integers or percentages.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "#"):
		if len(s) != 4 && len(s) != 7 {
			return Color{}, fmt.Errorf("invalid hex color '%s'", s)
		}
		c, err := colorful.Hex(s)
		if err != nil {
			return Color{}, fmt.Errorf("invalid hex color '%s': %w", s, err)
		}
		return Color{Color: c, Alpha: 1}, nil
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		return parseFunctional(s, "rgba(", 4)
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		return parseFunctional(s, "rgb(", 3)
	default:
		return Color{}, fmt.Errorf("unsupported color notation '%s'", s)
	}
}

func parseFunctional(s, prefix string, n int) (Color, error) {
	parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(s, prefix), ")"), ",")
	if len(parts) != n {
		return Color{}, fmt.Errorf("color '%s' must have %d components", s, n)
	}

	var channels [3]float64
	for i := 0; i < 3; i++ {
		v, err := parseChannel(strings.TrimSpace(parts[i]))
		if err != nil {
			return Color{}, fmt.Errorf("invalid color '%s': %w", s, err)
		}
		channels[i] = v
	}

	alpha := 1.0
	if n == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return Color{}, fmt.Errorf("invalid alpha in color '%s'", s)
		}
		alpha = a
	}
	return Color{Color: colorful.Color{R: channels[0], G: channels[1], B: channels[2]}, Alpha: alpha}, nil
}

// parseChannel returns the channel scaled to [0, 1].
func parseChannel(s string) (float64, error) {
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(pct, 64)
		if err != nil || v < 0 || v > 100 {
			return 0, fmt.Errorf("channel '%s' out of range", s)
		}
		return v / 100, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > 255 {
		return 0, fmt.Errorf("channel '%s' out of range", s)
	}
	return float64(v) / 255, nil
}

// Hex returns the "#rrggbb" notation, ignoring alpha.
func (c Color) Hex() string { return c.Color.Hex() }

// String returns the hex notation for opaque colors and rgba() otherwise.
func (c Color) String() string {
	if c.Alpha >= 1 {
		return c.Hex()
	}
	r, g, b := c.RGB255()
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, strconv.FormatFloat(c.Alpha, 'f', -1, 64))
}

// Equal reports whether both colors have the same 8 bit channels and alpha.
func (c Color) Equal(other Color) bool {
	return c.Hex() == other.Hex() && c.Alpha == other.Alpha
}

// ColorField is an input of type color.
type ColorField struct {
	*TextField
}

// ColorField creates a color field for selector.
func (f *Factory) ColorField(selector string) *ColorField {
	return &ColorField{TextField: &TextField{PageObject: f.PageObject(selector), field: events.FieldText}}
}

// ColorString returns the raw value, "#000000" when the field is empty.
func (c *ColorField) ColorString(ctx context.Context) (string, error) {
	value, err := c.readValue(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return defaultColor, nil
	}
	return value, nil
}

// Color returns the parsed value, black when the field is empty.
func (c *ColorField) Color(ctx context.Context) (Color, error) {
	value, err := c.ColorString(ctx)
	if err != nil {
		return Color{}, err
	}
	return ParseColor(value)
}

// SetColor assigns the hex notation of color.
func (c *ColorField) SetColor(ctx context.Context, color Color) error {
	return c.SetColorString(ctx, color.Hex())
}

// SetColorString assigns value as is. Browsers ignore values that are not
// "#rrggbb", in which case the field keeps or resets its value.
func (c *ColorField) SetColorString(ctx context.Context, value string) error {
	return c.scripted(ctx, value, func(before, after string) events.Event {
		return events.NewValueSetEvent(c, events.FieldColor, before, after, value)
	})
}

// Reset assigns an empty value, which browsers render as black.
func (c *ColorField) Reset(ctx context.Context) error {
	return c.scripted(ctx, "", func(before, after string) events.Event {
		return events.NewValueClearedEvent(c, events.FieldColor, before, after)
	})
}

func (c *ColorField) IsCorrectElement(ctx context.Context) (bool, error) {
	return c.matches(ctx, "color")
}
