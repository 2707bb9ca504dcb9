package domain

import (
	"context"
	"time"
)

// WorkerState is the lifecycle state of one generation's manager
type WorkerState string

const (
	StateInstalling WorkerState = "installing"
	StateInstalled  WorkerState = "installed"
	StateActivating WorkerState = "activating"
	StateActivated  WorkerState = "activated"
	StateRedundant  WorkerState = "redundant"
)

// Registration is the persisted record of a generation's lifecycle
type Registration struct {
	InstallID   string
	Generation  string
	Origin      string
	State       WorkerState
	CreatedAt   time.Time
	ActivatedAt *time.Time
}

// RegistrationRepo persists registrations across host restarts
type RegistrationRepo interface {
	Create(ctx context.Context, reg *Registration) error
	UpdateState(ctx context.Context, installID string, state WorkerState) error
	// Active returns the most recently activated registration, or nil when
	// no generation has ever been activated.
	Active(ctx context.Context) (*Registration, error)
	List(ctx context.Context) ([]*Registration, error)
}
