package notification

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/varoOP/kioskcache/internal/domain"
)

// Service fans rollout notifications out to every configured channel
type Service struct {
	discord *DiscordService
}

// NewService creates a new notification service
func NewService(log zerolog.Logger, webhookURL string) domain.NotificationService {
	var discord *DiscordService
	if webhookURL != "" {
		discord = NewDiscordService(log, webhookURL)
	}

	return &Service{
		discord: discord,
	}
}

func (s *Service) SendActivated(ctx context.Context, event domain.RolloutEvent) error {
	if s.discord != nil {
		if err := s.discord.SendActivated(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) SendInstallFailed(ctx context.Context, generation string, err error) error {
	if s.discord != nil {
		if err := s.discord.SendInstallFailed(ctx, generation, err); err != nil {
			return err
		}
	}
	return nil
}
