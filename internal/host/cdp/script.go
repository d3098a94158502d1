package cdp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/tubetune/internal/host"
	"github.com/desertthunder/tubetune/internal/quality"
	"github.com/desertthunder/tubetune/internal/shared"
)

// BindingName is the page global the signal script calls.
const BindingName = "__tubetuneSignal"

const signalScript = `(() => {
  if (window.__tubetuneHooked) return;
  window.__tubetuneHooked = true;
  const send = (kind) => {
    try { window[%[1]q](JSON.stringify({kind: kind, url: location.href})); } catch (e) {}
  };
  for (const [name, kind] of [["pushState", %[2]q], ["replaceState", %[3]q]]) {
    const orig = history[name];
    history[name] = function (...args) {
      const out = orig.apply(this, args);
      send(kind);
      return out;
    };
  }
  window.addEventListener("popstate", () => send(%[4]q));
  document.addEventListener("yt-navigate-finish", () => send(%[5]q));
  for (const [ev, kind] of [["loadedmetadata", %[6]q], ["canplay", %[7]q]]) {
    document.addEventListener(ev, (e) => {
      if (e.target && e.target.tagName === "VIDEO") send(kind);
    }, true);
  }
  const hasVideo = (n) => n.nodeName === "VIDEO" || (n.querySelector && n.querySelector("video"));
  const observer = new MutationObserver((mutations) => {
    for (const m of mutations) {
      for (const n of m.addedNodes) {
        if (hasVideo(n)) { send(%[8]q); return; }
      }
    }
  });
  const start = () => observer.observe(document.documentElement, {childList: true, subtree: true});
  if (document.documentElement) start(); else document.addEventListener("DOMContentLoaded", start);
})();`

// SignalScript returns the page script that reports navigation through [BindingName].
func SignalScript() string {
	return fmt.Sprintf(signalScript,
		BindingName,
		host.HistoryPush, host.HistoryReplace,
		host.PopState, host.NavigateFinish,
		host.MediaLoadedMetadata, host.MediaCanPlay,
		host.MediaInserted,
	)
}

type signalPayload struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// ParseSignal decodes a binding payload sent by [SignalScript].
func ParseSignal(payload string, at time.Time) (host.Signal, error) {
	var p signalPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return host.Signal{}, fmt.Errorf("%w: %w", shared.ErrMalformedResult, err)
	}
	kind, ok := host.ParseSignalKind(p.Kind)
	if !ok {
		return host.Signal{}, fmt.Errorf("%w: unknown signal %q", shared.ErrMalformedResult, p.Kind)
	}
	return host.Signal{Kind: kind, URL: p.URL, At: at}, nil
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// selectorExpr resolves to the first element matching sel.
func selectorExpr(sel string) string {
	return "document.querySelector(" + jsString(sel) + ")"
}

// parentExpr resolves to the parent of expr, or null once the body is reached.
func parentExpr(expr string) string {
	return "((el) => { const p = el && el.parentElement; return p && p !== document.body ? p : null; })(" + expr + ")"
}

// existsExpr evaluates to whether expr resolves to an element.
func existsExpr(expr string) string {
	return "!!(" + expr + ")"
}

// supportsExpr evaluates to whether expr exposes method c.
func supportsExpr(expr string, c host.Capability) string {
	return "((el) => !!el && typeof el[" + jsString(c.String()) + "] === \"function\")(" + expr + ")"
}

// callExpr invokes method c on expr with string arguments.
//
// The result is wrapped as {"ok": false} when the node or method is missing, otherwise as
// {"ok": true, "value": v} with undefined mapped to null.
func callExpr(expr string, c host.Capability, args ...quality.Level) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = jsString(a.String())
	}
	name := jsString(c.String())
	return "((el) => { if (!el || typeof el[" + name + "] !== \"function\") return {ok: false}; " +
		"const v = el[" + name + "](" + strings.Join(quoted, ", ") + "); " +
		"return {ok: true, value: v === undefined ? null : v}; })(" + expr + ")"
}

// callResult is the envelope produced by [callExpr].
type callResult struct {
	OK    bool            `json:"ok"`
	Value json.RawMessage `json:"value"`
}

// decode stores the call's value in out, or reports c as unavailable.
func (r callResult) decode(c host.Capability, out any) error {
	if !r.OK {
		return fmt.Errorf("%w: %s", shared.ErrCapabilityUnavailable, c)
	}
	if out == nil {
		return nil
	}
	raw := r.Value
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrMalformedResult, err)
	}
	return nil
}
