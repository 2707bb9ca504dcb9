package domain

import (
	"context"
)

// ManifestRepository defines the interface for shell manifest storage
type ManifestRepository interface {
	Get(ctx context.Context, path string) (*Manifest, error)
	Store(ctx context.Context, path string, manifest *Manifest) error
}

// Manifest pins the shell file set to a generation
type Manifest struct {
	Generation string   `yaml:"generation"`
	ShellFiles []string `yaml:"shell_files"`
}
