// internal/browser/scripts.go
package browser

// Every script is called with the resolved node as `this`. A node that was
// removed from the document is reported as detached so the failure is
// classified as stale.
const detachedGuard = `if (!this.isConnected) { throw new Error('node is detached from the document'); }`

const (
	jsTagName = `function() { ` + detachedGuard + ` return this.tagName.toLowerCase(); }`

	jsAttribute = `function(name) { ` + detachedGuard + `
	return this.hasAttribute(name)
		? { present: true, value: this.getAttribute(name) }
		: { present: false, value: '' };
}`

	jsValue = `function() { ` + detachedGuard + ` return this.value == null ? '' : String(this.value); }`

	jsIsVisible = `function() { ` + detachedGuard + `
	const style = window.getComputedStyle(this);
	if (style.display === 'none' || style.visibility === 'hidden' || style.visibility === 'collapse') {
		return false;
	}
	const rect = this.getBoundingClientRect();
	return rect.width > 0 || rect.height > 0;
}`

	jsIsEnabled = `function() { ` + detachedGuard + ` return !this.disabled && !this.closest('fieldset[disabled]'); }`

	// jsSetValue assigns the value property and notifies listeners the way user input would.
	jsSetValue = `function(value) { ` + detachedGuard + `
	this.value = value;
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
}`

	// jsCaretToEnd moves the caret behind the current value. Some input types
	// (email, number) do not support selection and are left alone.
	jsCaretToEnd = `function() { ` + detachedGuard + `
	try { const n = String(this.value || '').length; this.setSelectionRange(n, n); } catch (e) {}
}`
)

type attributeResult struct {
	Present bool   `json:"present"`
	Value   string `json:"value"`
}
