package youtube

import (
	"net/url"
	"strings"
)

// VideoID extracts the video identifier from a watch, short or youtu.be URL.
// Unrecognized URLs are returned trimmed so they still work as identifiers.
func VideoID(videoURL string) string {
	raw := strings.TrimSpace(videoURL)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch {
	case host == "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id
		}
	case strings.HasSuffix(host, "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok && rest != "" {
				return strings.SplitN(rest, "/", 2)[0]
			}
		}
	}
	return raw
}
