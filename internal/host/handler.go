package host

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/varoOP/kioskcache/internal/offline"
)

// Handler serves the kiosk page through the host. Requests in origin form
// ("/app.js") are mapped onto the page origin; absolute-form requests, as a
// browser sends them to a forward proxy, are used as is.
type Handler struct {
	host *Host
}

func NewHandler(h *Host) *Handler {
	return &Handler{host: h}
}

func (s *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := s.target(r)
	log := s.host.log.With().Str("method", r.Method).Str("url", target.String()).Logger()

	if r.Method != http.MethodGet {
		s.passThrough(w, r, target)
		return
	}

	resp, err := s.host.Intercept(r.Context(), NewRequest(r, target))
	if errors.Is(err, offline.ErrPassThrough) {
		s.passThrough(w, r, target)
		return
	}
	if err != nil {
		log.Debug().Err(err).Msg("request failed")
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	copyHeader(w.Header(), resp.Header)
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(resp.Status)
	if _, err := w.Write(resp.Body); err != nil {
		log.Debug().Err(err).Msg("failed to write response")
	}
}

func (s *Handler) target(r *http.Request) *url.URL {
	if r.URL.IsAbs() {
		return r.URL
	}
	ref := &url.URL{
		Path:     strings.TrimPrefix(r.URL.Path, "/"),
		RawQuery: r.URL.RawQuery,
	}
	return s.host.Origin().ResolveReference(ref)
}

func (s *Handler) passThrough(w http.ResponseWriter, r *http.Request, target *url.URL) {
	out := r.Clone(r.Context())
	out.URL = target
	out.Host = target.Host
	out.RequestURI = ""

	resp, err := s.host.network.RoundTrip(out)
	if err != nil {
		s.host.log.Debug().Err(err).Str("url", target.String()).Msg("pass-through failed")
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

func copyHeader(dst, src http.Header) {
	for k, v := range src {
		if k == "Content-Length" {
			continue
		}
		dst[k] = append([]string(nil), v...)
	}
}
