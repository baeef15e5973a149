package domain

import (
	"net/url"
	"strings"
)

// hostChars rejects hosts with characters that cannot appear in a
// registrable DNS name. Checked after parsing, so ports and userinfo are
// already split off.
func validHost(host string) bool {
	if host == "" {
		return false
	}
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '.':
		default:
			return false
		}
	}
	return !strings.HasPrefix(host, ".") && !strings.HasSuffix(host, ".")
}

// ValidateSeedURL checks that raw is a usable audit seed. An empty string,
// a non-HTTP scheme, or an unparseable host all fail. A missing scheme is
// fine; the crawler defaults it to https.
func ValidateSeedURL(raw string) error {
	seed := strings.TrimSpace(raw)
	if seed == "" {
		return &ConfigError{Field: "url", Reason: "seed URL is empty"}
	}
	for _, r := range seed {
		if r < ' ' {
			return &ConfigError{Field: "url", Reason: "seed URL contains control characters"}
		}
	}

	if !strings.Contains(seed, "://") {
		seed = "https://" + seed
	}
	u, err := url.Parse(seed)
	if err != nil {
		return &ConfigError{Field: "url", Reason: "seed URL does not parse: " + err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Field: "url", Reason: "scheme must be http or https, got " + u.Scheme}
	}
	if !validHost(u.Hostname()) {
		return &ConfigError{Field: "url", Reason: "seed URL has no usable host"}
	}
	return nil
}
