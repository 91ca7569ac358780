package slack

import "context"

// Provider posts short operator alerts to a Slack channel.
type Provider interface {
	PostMessage(ctx context.Context, channelID string, message string) error
}

// NoOpProvider is used when no webhook is configured.
type NoOpProvider struct{}

func (p *NoOpProvider) PostMessage(ctx context.Context, channelID string, message string) error {
	return nil
}
