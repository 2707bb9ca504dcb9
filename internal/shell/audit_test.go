package shell

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/kioskcache/internal/database"
	"github.com/varoOP/kioskcache/internal/domain"
	"github.com/varoOP/kioskcache/internal/offline"
)

const rootDocument = `<!doctype html>
<html>
<head>
  <link rel="stylesheet" href="styles.css">
  <link rel="manifest" href="./manifest.webmanifest">
  <link rel="preconnect" href="https://script.google.com">
</head>
<body>
  <video autoplay muted><source src="assets/hero.mp4#t=0" type="video/mp4"></video>
  <img src="assets/logo.png">
  <img src="">
  <script src="app.js"></script>
  <script src="app.js"></script>
</body>
</html>`

func setup(t *testing.T, shell map[string]string) (*database.CacheRepo, *offline.Manager) {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewDB(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	storage := database.NewCacheRepo(zerolog.Nop(), db)

	cfg, err := offline.NewConfig(&domain.Config{Generation: "v1", Origin: "https://kiosk.test/"})
	require.NoError(t, err)
	m := offline.NewManager(zerolog.Nop(), cfg, storage, nil, nil)

	var entries []domain.CacheEntry
	for u, body := range shell {
		entries = append(entries, domain.CacheEntry{
			Key:      domain.CacheKey{Method: http.MethodGet, URL: u},
			Response: &domain.CachedResponse{Status: 200, Header: http.Header{}, Body: []byte(body)},
		})
	}
	require.NoError(t, storage.PutAll(ctx, m.ShellPartition(), entries))

	return storage, m
}

func TestAudit_ReportsMissing(t *testing.T) {
	storage, m := setup(t, map[string]string{
		"https://kiosk.test/index.html":           rootDocument,
		"https://kiosk.test/styles.css":           "body{}",
		"https://kiosk.test/app.js":               "boot()",
		"https://kiosk.test/manifest.webmanifest": "{}",
	})

	report, err := NewService(zerolog.Nop(), storage).Audit(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, "v1", report.Generation)
	assert.Equal(t, "https://kiosk.test/index.html", report.Document)
	assert.Equal(t, []string{
		"https://kiosk.test/app.js",
		"https://kiosk.test/assets/hero.mp4",
		"https://kiosk.test/assets/logo.png",
		"https://kiosk.test/manifest.webmanifest",
		"https://kiosk.test/styles.css",
		"https://script.google.com",
	}, report.Referenced)
	assert.Equal(t, []string{
		"https://kiosk.test/assets/hero.mp4",
		"https://kiosk.test/assets/logo.png",
	}, report.Missing)
}

func TestAudit_NoRootDocument(t *testing.T) {
	storage, m := setup(t, map[string]string{
		"https://kiosk.test/app.js": "boot()",
	})

	_, err := NewService(zerolog.Nop(), storage).Audit(context.Background(), m)
	assert.Error(t, err)
}

func TestAudit_DefaultPortIsSameOrigin(t *testing.T) {
	storage, m := setup(t, map[string]string{
		"https://kiosk.test/index.html": `<html><script src="https://kiosk.test:443/app.js"></script><img src="https://KIOSK.test:443/logo.png"></html>`,
		"https://kiosk.test/app.js":     "boot()",
	})

	report, err := NewService(zerolog.Nop(), storage).Audit(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://KIOSK.test:443/logo.png",
		"https://kiosk.test:443/app.js",
	}, report.Referenced)
	assert.Equal(t, []string{"https://kiosk.test/logo.png"}, report.Missing)
}
