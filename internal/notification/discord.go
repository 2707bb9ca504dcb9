package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/kioskcache/internal/domain"
)

// DiscordService implements NotificationService for Discord webhooks
type DiscordService struct {
	log        zerolog.Logger
	webhookURL string
	httpClient *http.Client
}

// NewDiscordService creates a new Discord notification service
func NewDiscordService(log zerolog.Logger, webhookURL string) *DiscordService {
	return &DiscordService{
		log:        log.With().Str("module", "notification").Str("type", "discord").Logger(),
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendActivated announces a generation rollout
func (s *DiscordService) SendActivated(ctx context.Context, event domain.RolloutEvent) error {
	if s.webhookURL == "" {
		return nil
	}

	previous := event.PreviousGeneration
	if previous == "" {
		previous = "none"
	}
	deleted := "none"
	if len(event.DeletedPartitions) > 0 {
		deleted = strings.Join(event.DeletedPartitions, ", ")
	}

	embed := discordEmbed{
		Title:       "Kiosk cache generation activated",
		Description: fmt.Sprintf("Generation `%s` is now serving the kiosk", event.Generation),
		Color:       0x00ff00, // Green
		Timestamp:   event.ActivatedAt.Format(time.RFC3339),
		Fields: []discordField{
			{
				Name:   "Previous generation",
				Value:  previous,
				Inline: true,
			},
			{
				Name:   "Shell files",
				Value:  fmt.Sprintf("%d", event.ShellFiles),
				Inline: true,
			},
			{
				Name:   "Install ID",
				Value:  event.InstallID,
				Inline: false,
			},
			{
				Name:   "Deleted partitions",
				Value:  deleted,
				Inline: false,
			},
		},
	}

	return s.sendWebhook(ctx, discordWebhook{Embeds: []discordEmbed{embed}})
}

// SendInstallFailed announces a failed install
func (s *DiscordService) SendInstallFailed(ctx context.Context, generation string, err error) error {
	if s.webhookURL == "" {
		return nil
	}

	embed := discordEmbed{
		Title:       "Kiosk cache install failed",
		Description: fmt.Sprintf("Generation `%s` could not be installed, the previous generation stays active:\n```%s```", generation, err.Error()),
		Color:       0xff0000, // Red
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	return s.sendWebhook(ctx, discordWebhook{Embeds: []discordEmbed{embed}})
}

// sendWebhook sends a webhook payload to Discord
func (s *DiscordService) sendWebhook(ctx context.Context, payload discordWebhook) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "failed to create webhook request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send webhook request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	s.log.Debug().Msg("Discord notification sent successfully")
	return nil
}

type discordWebhook struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}
