package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/kioskcache/internal/domain"
)

// DefaultUserAgent is sent when the intercepted request carries none
const DefaultUserAgent = "kioskcache/1.0"

type userAgentTransport struct {
	Transport http.RoundTripper
	UserAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.UserAgent)
	}
	return transport.RoundTrip(req)
}

// Fetcher is the network primitive used by the offline manager
type Fetcher struct {
	log    zerolog.Logger
	client *http.Client
}

var _ domain.Fetcher = (*Fetcher)(nil)

// NewFetcher creates a fetcher. A zero timeout leaves requests unbounded.
func NewFetcher(log zerolog.Logger, timeout time.Duration) *Fetcher {
	return NewFetcherWithTransport(log, timeout, http.DefaultTransport)
}

func NewFetcherWithTransport(log zerolog.Logger, timeout time.Duration, transport http.RoundTripper) *Fetcher {
	return &Fetcher{
		log: log.With().Str("module", "fetch").Logger(),
		client: &http.Client{
			Timeout:   timeout,
			Transport: &userAgentTransport{Transport: transport, UserAgent: DefaultUserAgent},
		},
	}
}

// Fetch performs the request and buffers the whole body
func (f *Fetcher) Fetch(ctx context.Context, req *domain.Request) (*domain.CachedResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	for k, v := range req.Header {
		if isHopByHop(k) || isConditional(k) {
			continue
		}
		httpReq.Header[k] = append([]string(nil), v...)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", req.URL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response body of %s", req.URL)
	}

	header := resp.Header.Clone()
	for k := range header {
		if isHopByHop(k) {
			header.Del(k)
		}
	}

	f.log.Trace().Str("url", req.URL.String()).Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("fetched")

	return &domain.CachedResponse{
		Status:   resp.StatusCode,
		Header:   header,
		Body:     body,
		CachedAt: time.Now(),
	}, nil
}

var hopByHop = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Proxy-Connection":    {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

func isHopByHop(name string) bool {
	_, ok := hopByHop[http.CanonicalHeaderKey(name)]
	return ok
}

// Validators belong to the client's own cache. Forwarding them would let the
// origin answer 304 with no body, which is useless as a stored copy.
var conditional = map[string]struct{}{
	"If-Match":            {},
	"If-None-Match":       {},
	"If-Modified-Since":   {},
	"If-Unmodified-Since": {},
	"If-Range":            {},
}

func isConditional(name string) bool {
	_, ok := conditional[http.CanonicalHeaderKey(name)]
	return ok
}
