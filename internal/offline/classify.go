package offline

import (
	"net/url"
	"strings"

	"github.com/varoOP/kioskcache/internal/domain"
)

// Classify decides which policy applies to u. The content endpoint check runs
// first so an endpoint that shares the page origin is still network-first.
func (m *Manager) Classify(u *url.URL) domain.RequestClass {
	return classify(u, m.cfg.Origin, m.cfg.ContentHosts)
}

func classify(u, origin *url.URL, contentHosts []string) domain.RequestClass {
	if isContentHost(u.Hostname(), contentHosts) {
		return domain.ClassContentEndpoint
	}
	if SameOrigin(u, origin) {
		return domain.ClassSameOrigin
	}
	return domain.ClassCrossOrigin
}

func isContentHost(host string, contentHosts []string) bool {
	host = strings.ToLower(host)
	for _, h := range contentHosts {
		h = strings.ToLower(h)
		if strings.HasPrefix(h, ".") {
			if strings.HasSuffix(host, h) {
				return true
			}
			continue
		}
		if host == h {
			return true
		}
	}
	return false
}

// SameOrigin compares scheme, host and port, treating an explicit default
// port like an omitted one
func SameOrigin(a, b *url.URL) bool {
	return originOf(a) == originOf(b)
}

// originOf returns scheme://host[:port] with the default port dropped
func originOf(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		return scheme + "://" + host + ":" + port
	}
	return scheme + "://" + host
}
