package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/kioskcache/internal/domain"
)

func request(t *testing.T, rawURL string, header http.Header) *domain.Request {
	t.Helper()

	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return &domain.Request{Method: http.MethodGet, URL: u, Mode: domain.ModeSubresource, Header: header}
}

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "ko", r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Type", "text/css")
		w.Header().Set("Connection", "keep-alive")
		io.WriteString(w, "body{}")
	}))
	defer srv.Close()

	f := NewFetcher(zerolog.Nop(), 0)
	resp, err := f.Fetch(context.Background(), request(t, srv.URL+"/styles.css", http.Header{
		"Accept-Language": {"ko"},
		"Connection":      {"close"},
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "body{}", string(resp.Body))
	assert.Equal(t, "text/css", resp.Header.Get("Content-Type"))
	assert.Empty(t, resp.Header.Get("Connection"))
	assert.False(t, resp.CachedAt.IsZero())
}

func TestFetcher_KeepsUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	f := NewFetcher(zerolog.Nop(), 0)
	resp, err := f.Fetch(context.Background(), request(t, srv.URL, http.Header{"User-Agent": {"KioskTablet/2"}}))
	require.NoError(t, err)
	assert.Equal(t, "KioskTablet/2", string(resp.Body))
}

func TestFetcher_ErrorStatusIsAResponse(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewFetcher(zerolog.Nop(), 0)
	resp, err := f.Fetch(context.Background(), request(t, srv.URL+"/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.False(t, resp.OK())
}

func TestFetcher_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := NewFetcher(zerolog.Nop(), 0)
	_, err := f.Fetch(context.Background(), request(t, addr, nil))
	assert.Error(t, err)
}

func TestFetcher_DropsConditionalHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range []string{"If-None-Match", "If-Modified-Since", "If-Match", "If-Unmodified-Since", "If-Range"} {
			assert.Empty(t, r.Header.Get(h), h)
		}
		io.WriteString(w, "body{}")
	}))
	defer srv.Close()

	f := NewFetcher(zerolog.Nop(), 0)
	resp, err := f.Fetch(context.Background(), request(t, srv.URL+"/styles.css", http.Header{
		"If-None-Match":       {`"abc"`},
		"If-Modified-Since":   {"Mon, 19 Oct 2026 00:00:00 GMT"},
		"If-Match":            {`"abc"`},
		"If-Unmodified-Since": {"Mon, 19 Oct 2026 00:00:00 GMT"},
		"If-Range":            {`"abc"`},
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "body{}", string(resp.Body))
}
