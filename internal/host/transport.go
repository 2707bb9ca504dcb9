package host

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/varoOP/kioskcache/internal/domain"
	"github.com/varoOP/kioskcache/internal/offline"
)

// NewRequest builds the request descriptor for an outgoing request to u
func NewRequest(r *http.Request, u *url.URL) *domain.Request {
	return &domain.Request{
		Method: r.Method,
		URL:    u,
		Mode:   requestMode(r.Header),
		Header: r.Header.Clone(),
	}
}

// requestMode uses the fetch metadata headers browsers attach to every request
func requestMode(h http.Header) domain.RequestMode {
	switch mode := h.Get("Sec-Fetch-Mode"); {
	case mode == "navigate":
		return domain.ModeNavigate
	case mode == "" && h.Get("Sec-Fetch-Dest") == "document":
		return domain.ModeNavigate
	default:
		return domain.ModeSubresource
	}
}

// RoundTrip lets an http.Client load through the active manager. Requests the
// manager does not handle go to the network transport unchanged.
func (h *Host) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return h.network.RoundTrip(req)
	}

	u := req.URL
	if !u.IsAbs() {
		u = h.Origin().ResolveReference(u)
	}

	resp, err := h.Intercept(req.Context(), NewRequest(req, u))
	if errors.Is(err, offline.ErrPassThrough) {
		return h.network.RoundTrip(req)
	}
	if err != nil {
		return nil, err
	}

	return toHTTPResponse(resp, req), nil
}

func toHTTPResponse(c *domain.CachedResponse, req *http.Request) *http.Response {
	header := c.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", c.Status, http.StatusText(c.Status)),
		StatusCode:    c.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(c.Body)),
		ContentLength: int64(len(c.Body)),
		Request:       req,
	}
}
