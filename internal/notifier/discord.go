package notifier

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/nickdesi/scba-benevolat/internal/auth"
	"github.com/nickdesi/scba-benevolat/internal/models"
)

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

// NewDiscordSession opens a bot session for token.
func NewDiscordSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token is empty")
	}
	return discordgo.New("Bot " + token)
}

func (n *DiscordNotifier) NotifySignUp(game models.Game, role models.Role, who auth.Identity, names []string) error {
	return n.send(formatSignUp(game, role, who, names))
}

func (n *DiscordNotifier) NotifyMatch(game models.Game, driver, passenger models.CarpoolEntry) error {
	return n.send(formatMatch(game, driver, passenger))
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}
	if _, err := n.session.ChannelMessageSend(n.channelID, message); err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	return nil
}
