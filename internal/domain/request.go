package domain

import (
	"context"
	"net/http"
	"net/url"
)

type RequestMode string

const (
	// ModeNavigate is a request for the page document itself
	ModeNavigate RequestMode = "navigate"
	// ModeSubresource covers everything the page loads after navigation
	ModeSubresource RequestMode = "subresource"
)

// Request describes an intercepted request
type Request struct {
	Method string
	URL    *url.URL
	Mode   RequestMode
	Header http.Header
}

// Key returns the cache key for the request
func (r *Request) Key() CacheKey {
	return CacheKey{Method: r.Method, URL: r.URL.String()}
}

// IsNavigation reports whether the request loads the page document
func (r *Request) IsNavigation() bool {
	return r.Mode == ModeNavigate
}

// RequestClass decides which caching policy applies to a request
type RequestClass int

const (
	ClassContentEndpoint RequestClass = iota
	ClassSameOrigin
	ClassCrossOrigin
)

func (c RequestClass) String() string {
	switch c {
	case ClassContentEndpoint:
		return "remote-content-endpoint"
	case ClassSameOrigin:
		return "same-origin-asset"
	case ClassCrossOrigin:
		return "other-cross-origin"
	default:
		return "unknown"
	}
}

// Fetcher is the network primitive. Any HTTP status counts as a resolved
// response; only transport failures are returned as errors.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (*CachedResponse, error)
}
