package shell

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/kioskcache/internal/domain"
	"github.com/varoOP/kioskcache/internal/offline"
	"golang.org/x/net/html"
)

// Report lists the assets the cached root document references
type Report struct {
	Generation string
	Document   string
	Referenced []string
	// Missing are same-origin references absent from the shell partition.
	// They will only load offline if the runtime partition happens to hold them.
	Missing []string
}

type Service interface {
	Audit(ctx context.Context, m *offline.Manager) (*Report, error)
}

type service struct {
	log     zerolog.Logger
	storage domain.CacheStorage
}

func NewService(log zerolog.Logger, storage domain.CacheStorage) Service {
	return &service{
		log:     log.With().Str("module", "shell").Logger(),
		storage: storage,
	}
}

// Audit parses the root document stored in m's shell partition
func (s *service) Audit(ctx context.Context, m *offline.Manager) (*Report, error) {
	root, err := m.Resolve(offline.RootDocument)
	if err != nil {
		return nil, err
	}

	doc, err := s.storage.MatchIn(ctx, m.ShellPartition(), domain.CacheKey{Method: http.MethodGet, URL: root.String()})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load root document")
	}
	if doc == nil {
		return nil, errors.Errorf("root document %s is not in %s", root, m.ShellPartition())
	}

	refs, err := references(doc.Body, root)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Generation: m.Generation(),
		Document:   root.String(),
	}
	origin := m.Config().Origin
	for _, ref := range refs {
		report.Referenced = append(report.Referenced, ref.String())
		if !offline.SameOrigin(ref, origin) {
			continue
		}

		// Shell keys are written in the origin's spelling
		ref.Scheme = origin.Scheme
		ref.Host = origin.Host
		hit, err := s.storage.MatchIn(ctx, m.ShellPartition(), domain.CacheKey{Method: http.MethodGet, URL: ref.String()})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to match %s", ref)
		}
		if hit == nil {
			report.Missing = append(report.Missing, ref.String())
		}
	}

	s.log.Debug().Int("referenced", len(report.Referenced)).Int("missing", len(report.Missing)).Msg("shell audit complete")
	return report, nil
}

// assetAttrs maps elements to the attribute that loads a sub-resource
var assetAttrs = map[string]string{
	"script": "src",
	"link":   "href",
	"img":    "src",
	"video":  "src",
	"source": "src",
}

func references(body []byte, base *url.URL) ([]*url.URL, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse HTML")
	}

	seen := map[string]*url.URL{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := assetAttrs[n.Data]; ok {
				for _, a := range n.Attr {
					if a.Key != attr || a.Val == "" {
						continue
					}
					ref, err := url.Parse(strings.TrimSpace(a.Val))
					if err != nil {
						continue
					}
					u := base.ResolveReference(ref)
					u.Fragment = ""
					u.RawFragment = ""
					seen[u.String()] = u
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*url.URL, 0, len(keys))
	for _, k := range keys {
		out = append(out, seen[k])
	}
	return out, nil
}
