package navigation

import (
	"net/url"
	"strings"
)

// VideoID extracts the video identity from a page URL.
//
// Recognized forms are /watch?v=ID, youtu.be/ID, /embed/ID and /shorts/ID. Anything else
// yields false.
func VideoID(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	if v := u.Query().Get("v"); v != "" && u.Path == "/watch" {
		return v, true
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "youtu.be" {
		return firstSegment(u.Path)
	}

	for _, prefix := range []string{"/embed/", "/shorts/"} {
		if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
			return firstSegment(rest)
		}
	}
	return "", false
}

func firstSegment(p string) (string, bool) {
	p = strings.TrimPrefix(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p, p != ""
}
