package content

import (
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/varoOP/kioskcache/internal/domain"
)

//go:embed fallback.json
var fallbackJSON []byte

type Service interface {
	Load(ctx context.Context) (*domain.Content, error)
	Fallback() (*domain.Content, error)
}

type service struct {
	log      zerolog.Logger
	client   *http.Client
	endpoint string
}

// NewService creates a content loader. client should route through the host so
// the endpoint is network-first with the cached copy as fallback.
func NewService(log zerolog.Logger, client *http.Client, endpoint string) Service {
	return &service{
		log:      log.With().Str("module", "content").Logger(),
		client:   client,
		endpoint: endpoint,
	}
}

// Load fetches live content and falls back to the embedded copy on any failure
func (s *service) Load(ctx context.Context) (*domain.Content, error) {
	if s.endpoint == "" {
		s.log.Info().Msg("content endpoint not set, using fallback")
		return s.Fallback()
	}

	c, err := s.fetch(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("API load failed, using fallback")
		return s.Fallback()
	}

	s.log.Debug().Str("generated_at", c.GeneratedAt).Msg("loaded live content")
	return c, nil
}

func (s *service) fetch(ctx context.Context) (*domain.Content, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid content endpoint")
	}
	q := u.Query()
	q.Set("action", "content")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch content")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if !gjson.ValidBytes(body) || !gjson.GetBytes(body, "ok").Bool() {
		return nil, errors.New("invalid payload")
	}

	c := &domain.Content{}
	if err := json.Unmarshal(body, c); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal content")
	}
	c.LoadedFrom = domain.SourceAPI

	return c, nil
}

// Fallback returns the content embedded in the binary
func (s *service) Fallback() (*domain.Content, error) {
	c := &domain.Content{}
	if err := json.Unmarshal(fallbackJSON, c); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal fallback content")
	}
	c.GeneratedAt = time.Now().Format(time.RFC3339)
	c.LoadedFrom = domain.SourceFallback
	return c, nil
}
