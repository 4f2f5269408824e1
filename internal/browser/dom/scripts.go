// Package dom holds the page-side scripts shared by the live browser drivers. Controls are addressed
// through a tagging attribute so a handle keeps pointing at the same element between calls.
package dom

import (
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/xkilldash9x/surveypilot/api/schemas"
)

// HandleAttr is the attribute written on every enumerated control.
const HandleAttr = "data-sp-handle"

// Selector returns the CSS selector addressing a tagged control.
func Selector(id string) string {
	return fmt.Sprintf(`[%s=%s]`, HandleAttr, encode(id))
}

// VisibleTextScript reads the rendered text of the whole document.
const VisibleTextScript = `(function() {
	return document.body ? document.body.innerText : "";
})()`

// EnumerateScript tags every element matching selector (in document order) and describes it.
// The result is a JSON array suitable for ParseHandles.
func EnumerateScript(selector string) string {
	return fmt.Sprintf(`(function(selector, attr) {
	window.__spHandleSeq = window.__spHandleSeq || 0;
	const out = [];
	document.querySelectorAll(selector).forEach(function(el) {
		let id = el.getAttribute(attr);
		if (!id) {
			window.__spHandleSeq += 1;
			id = "sp-" + window.__spHandleSeq;
			el.setAttribute(attr, id);
		}
		const text = (el.innerText || el.value || el.getAttribute("aria-label") || "").trim();
		out.push({
			id: id,
			inputType: (el.getAttribute("type") || "").toLowerCase(),
			placeholder: el.getAttribute("placeholder") || "",
			text: text.slice(0, 200)
		});
	});
	return JSON.stringify(out);
})(%s, %s)`, encode(selector), encode(HandleAttr))
}

// LabelScript returns the text surrounding a control: its parent's text, then its <label>, then aria-label.
func LabelScript(id string) string {
	return fmt.Sprintf(`(function(sel) {
	const el = document.querySelector(sel);
	if (!el) { return null; }
	const parent = el.parentElement;
	if (parent && parent.innerText && parent.innerText.trim()) { return parent.innerText.trim(); }
	if (el.labels && el.labels.length > 0) { return el.labels[0].innerText.trim(); }
	return el.getAttribute("aria-label") || "";
})(%s)`, encode(Selector(id)))
}

// ScrollIntoViewScript centers the control in the viewport.
func ScrollIntoViewScript(id string) string {
	return fmt.Sprintf(`(function(sel) {
	const el = document.querySelector(sel);
	if (!el) { return false; }
	el.scrollIntoView({block: "center"});
	return true;
})(%s)`, encode(Selector(id)))
}

// ForceClickScript clicks through script, bypassing overlays that intercept real pointer events.
func ForceClickScript(id string) string {
	return fmt.Sprintf(`(function(sel) {
	const el = document.querySelector(sel);
	if (!el) { return false; }
	el.click();
	return true;
})(%s)`, encode(Selector(id)))
}

// ClearScript empties a field and notifies the page's listeners.
func ClearScript(id string) string {
	return fmt.Sprintf(`(function(sel) {
	const el = document.querySelector(sel);
	if (!el || el.disabled || el.readOnly) { return false; }
	try {
		el.focus();
		el.value = "";
		el.dispatchEvent(new Event("input", { bubbles: true }));
		el.dispatchEvent(new Event("change", { bubbles: true }));
	} catch (e) {
		return false;
	}
	return true;
})(%s)`, encode(Selector(id)))
}

// SetValueScript assigns value directly. Used when key events are swallowed by the page.
func SetValueScript(id, value string) string {
	return fmt.Sprintf(`(function(sel, value) {
	const el = document.querySelector(sel);
	if (!el || el.disabled || el.readOnly) { return false; }
	el.value = value;
	el.dispatchEvent(new Event("input", { bubbles: true }));
	el.dispatchEvent(new Event("change", { bubbles: true }));
	return true;
})(%s, %s)`, encode(Selector(id)), encode(value))
}

// ParseHandles decodes the EnumerateScript result.
func ParseHandles(raw string, kind schemas.ControlKind) ([]schemas.ControlHandle, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []schemas.ControlHandle{}, nil
	}
	var handles []schemas.ControlHandle
	if err := json.UnmarshalFromString(raw, &handles); err != nil {
		return nil, fmt.Errorf("decoding control list: %w", err)
	}
	for i := range handles {
		handles[i].Kind = kind
	}
	if handles == nil {
		handles = []schemas.ControlHandle{}
	}
	return handles, nil
}

// encode renders a Go string as a JavaScript string literal.
func encode(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
