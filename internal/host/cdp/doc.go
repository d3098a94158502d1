// Package cdp implements the host surface over the Chrome DevTools Protocol.
//
// It attaches to a running browser with chromedp, picks (or opens) a YouTube tab and exposes it
// as a [host.Document]. Elements are addressed by JavaScript expressions evaluated in the page,
// so a handle stays valid only as long as the DOM node it resolves to.
//
// Navigation signals come from a page script installed on every new document. The script hooks
// history.pushState/replaceState, listens for yt-navigate-finish, popstate and media events, and
// observes inserted video elements; each event calls a DevTools binding that this package turns
// into a [host.Signal].
package cdp
