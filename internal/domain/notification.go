package domain

import (
	"context"
	"time"
)

// NotificationService defines the interface for rollout notifications
type NotificationService interface {
	// SendActivated announces that a generation took over
	SendActivated(ctx context.Context, event RolloutEvent) error

	// SendInstallFailed announces that a generation could not be installed
	SendInstallFailed(ctx context.Context, generation string, err error) error
}

// RolloutEvent describes a completed activation
type RolloutEvent struct {
	Generation         string
	PreviousGeneration string
	InstallID          string
	ShellFiles         int
	DeletedPartitions  []string
	ActivatedAt        time.Time
}
