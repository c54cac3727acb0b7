// internal/browser/errors.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/runtime"

	"github.com/xkilldash9x/webtester/internal/action"
)

// Markers of a node id that no longer points into the live document. CDP
// reports them as generic server errors (-32000), a code shared with unrelated
// failures, so only the message identifies them.
var staleMarkers = []string{
	"No node with given id",
	"Could not find node",
	"Node with given id does not belong to the document",
	"Cannot find context with specified id",
	"Execution context was destroyed",
	"detached from the document",
}

// Markers of a node that exists but has no layout.
var invisibleMarkers = []string{
	"Could not compute box model",
	"Node is not visible",
	"Node does not have a layout object",
}

// classify tags a CDP failure of op with action.ErrStale or action.ErrInvisible
// so the action template can react to it. Context errors and anything
// unrecognized are wrapped with op only.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	text := errorText(err)
	switch {
	case containsAny(text, invisibleMarkers):
		return fmt.Errorf("%s: %w: %w", op, action.ErrInvisible, err)
	case containsAny(text, staleMarkers):
		return fmt.Errorf("%s: %w: %w", op, action.ErrStale, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// errorText includes the description of a script exception, which is where a
// thrown detached node error ends up.
func errorText(err error) string {
	text := err.Error()
	var exception *runtime.ExceptionDetails
	if errors.As(err, &exception) && exception.Exception != nil {
		text += " " + exception.Exception.Description
	}
	return text
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
