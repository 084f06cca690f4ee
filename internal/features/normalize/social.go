package normalize

import (
	"net/url"
	"strings"

	"crypto-tracker/internal/domain"
)

// AddLink files rawURL into the matching slot of s. The first link per slot wins.
// kind is the provider's label ("telegram", "twitter", "website", ...) and may be empty.
// Scheme-less links ("t.me/x") get https://, and a bare "@handle" is accepted in the
// telegram and twitter slots.
func AddLink(s *domain.SocialLinks, kind, rawURL string) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	rawURL = canonicalURL(kind, strings.TrimSpace(rawURL))
	if rawURL == "" {
		return
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return
	}

	switch classify(kind, strings.ToLower(u.Hostname())) {
	case "telegram":
		if s.Telegram == "" {
			s.Telegram = rawURL
		}
	case "twitter":
		if s.Twitter == "" {
			s.Twitter = rawURL
		}
	case "website":
		if s.Website == "" {
			s.Website = rawURL
		}
	}
}

func canonicalURL(kind, raw string) string {
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	if handle, ok := strings.CutPrefix(raw, "@"); ok {
		if handle == "" || strings.ContainsAny(handle, "/:@ ") {
			return ""
		}
		switch kind {
		case "telegram":
			return "https://t.me/" + handle
		case "twitter", "x":
			return "https://x.com/" + handle
		}
		return ""
	}
	host, _, _ := strings.Cut(raw, "/")
	if strings.Contains(host, ".") && !strings.ContainsAny(host, ":@ ") {
		return "https://" + raw
	}
	return raw
}

func classify(kind, host string) string {
	switch {
	case kind == "telegram" || hostIs(host, "t.me", "telegram.me", "telegram.org", "telegram.dog"):
		return "telegram"
	case kind == "twitter" || kind == "x" || hostIs(host, "twitter.com", "x.com"):
		return "twitter"
	case kind == "" || kind == "website" || kind == "web" || kind == "homepage":
		return "website"
	default:
		// discord, medium, etc. have no slot
		return ""
	}
}

func hostIs(host string, domains ...string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
