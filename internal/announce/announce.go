// Package announce posts committed auction events to a Discord channel.
// The announcer is a read-only consumer of history entries; a failed post is
// logged and never blocks or rolls back a commit.
package announce

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/jensholdgaard/auction-desk/internal/auction"
	"github.com/jensholdgaard/auction-desk/internal/config"
)

// Sender is the slice of the Discord session the announcer uses.
type Sender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer implements auction.Notifier over a Discord channel.
type Announcer struct {
	session   Sender
	closer    func() error
	channelID string
	logger    *slog.Logger
}

// New opens a Discord session for the configured channel.
func New(cfg config.AnnounceConfig, logger *slog.Logger) (*Announcer, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("opening discord session: %w", err)
	}
	a := NewWithSender(session, cfg.ChannelID, logger)
	a.closer = session.Close
	return a, nil
}

// NewWithSender builds an announcer over an existing sender.
func NewWithSender(s Sender, channelID string, logger *slog.Logger) *Announcer {
	return &Announcer{
		session:   s,
		channelID: channelID,
		logger:    logger,
	}
}

// LotCommitted formats and posts a committed auction event.
func (a *Announcer) LotCommitted(ctx context.Context, entry auction.HistoryEntry) {
	if _, err := a.session.ChannelMessageSend(a.channelID, Format(entry)); err != nil {
		a.logger.ErrorContext(ctx, "announce failed",
			slog.String("player", entry.PlayerName),
			slog.String("action", string(entry.Action)),
			slog.Any("error", err),
		)
	}
}

// Close shuts the Discord connection down.
func (a *Announcer) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

// Format renders one history entry as a channel message.
func Format(entry auction.HistoryEntry) string {
	switch entry.Action {
	case auction.ActionSold:
		return fmt.Sprintf("**%s** sold to **%s** for %d", entry.PlayerName, entry.TeamName, entry.Price)
	case auction.ActionUnsold:
		return fmt.Sprintf("**%s** went unsold", entry.PlayerName)
	case auction.ActionPassed:
		return fmt.Sprintf("**%s** passed for now", entry.PlayerName)
	default:
		return fmt.Sprintf("**%s**: %s", entry.PlayerName, entry.Action)
	}
}
