package crawl

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Normalize canonicalizes a URL string into a stable comparable form:
// lower-cased, scheme defaulted to https, fragment stripped, utm_* query
// parameters removed, and a single trailing slash trimmed (the bare root
// becomes "https://host" with no path). Idempotent, and never fails: on
// unparseable input it returns the best-effort lowercased/prefixed string.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return s
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return s
	}

	u.Fragment = ""
	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			if strings.HasPrefix(k, "utm_") {
				q.Del(k)
			}
		}
		u.RawQuery = q.Encode()
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

// registrableDomain returns the eTLD+1 for host, falling back to the bare
// host (without www) when the public suffix list has no answer, e.g. for
// localhost or IP literals.
func registrableDomain(host string) string {
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return strings.TrimPrefix(host, "www.")
	}
	return d
}

// sameSite reports whether candidate shares the seed's registrable domain.
func sameSite(seedHost, candidateHost string) bool {
	return registrableDomain(seedHost) == registrableDomain(candidateHost)
}
