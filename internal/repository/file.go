package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/varoOP/kioskcache/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileRepository implements domain.ManifestRepository using YAML files
type FileRepository struct {
	log zerolog.Logger
}

// NewFileRepository creates a new file-based repository
func NewFileRepository(log zerolog.Logger) *FileRepository {
	return &FileRepository{
		log: log.With().Str("module", "repository").Logger(),
	}
}

var _ domain.ManifestRepository = (*FileRepository)(nil)

// Get reads a shell manifest
func (r *FileRepository) Get(ctx context.Context, path string) (*domain.Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file does not exist: %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	m := &domain.Manifest{}
	if err := yaml.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml from %s: %w", path, err)
	}

	if m.Generation == "" {
		return nil, fmt.Errorf("manifest %s has no generation", path)
	}
	if len(m.ShellFiles) == 0 {
		return nil, fmt.Errorf("manifest %s has no shell files", path)
	}

	return m, nil
}

// Store writes a shell manifest, creating parent directories
func (r *FileRepository) Store(ctx context.Context, path string, manifest *domain.Manifest) error {
	b, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal yaml: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	r.log.Debug().Str("path", path).Int("shell_files", len(manifest.ShellFiles)).Msg("stored manifest")
	return nil
}
