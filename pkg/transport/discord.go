package transport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/yomikobot/yomiko/pkg/logger"
)

// DiscordTransport adapts a discordgo session to the Messenger interface
// and translates gateway events into the package's plain event structs.
type DiscordTransport struct {
	session *discordgo.Session
	selfID  string
}

// Handlers are the pipeline callbacks the transport feeds. OnError only
// receives connection-level faults surfaced by the gateway; handler-level
// faults stay inside the pipeline.
type Handlers struct {
	OnReady    func()
	OnMessage  func(MessageEvent)
	OnReaction func(ReactionEvent)
	OnError    func(error)
}

// NewDiscord creates a transport over a bot token. The session is not
// connected yet; call Open after registering handlers.
func NewDiscord(token string) (*DiscordTransport, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent
	return &DiscordTransport{session: session}, nil
}

// Install registers the event handlers on the session.
func (d *DiscordTransport) Install(h Handlers) {
	d.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		d.selfID = r.User.ID
		logger.InfoCF("transport", "Gateway ready", map[string]interface{}{
			"user": r.User.Username,
		})
		if h.OnReady != nil {
			h.OnReady()
		}
	})

	d.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if h.OnMessage == nil || m.Author == nil {
			return
		}
		h.OnMessage(MessageEvent{
			MessageID: m.ID,
			ChannelID: m.ChannelID,
			AuthorID:  m.Author.ID,
			AuthorBot: m.Author.Bot,
			Content:   m.Content,
		})
	})

	d.session.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if h.OnReaction == nil {
			return
		}
		h.OnReaction(ReactionEvent{
			MessageID: r.MessageID,
			ChannelID: r.ChannelID,
			UserID:    r.UserID,
			Emoji:     r.Emoji.Name,
		})
	})

	d.session.AddHandler(func(s *discordgo.Session, e *discordgo.Disconnect) {
		// The gateway reconnects on its own; surface it as a transient fault.
		if h.OnError != nil {
			h.OnError(ErrConnectionReset)
		}
	})
}

// Open connects to the gateway.
func (d *DiscordTransport) Open() error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

// Close shuts the gateway connection down.
func (d *DiscordTransport) Close() error {
	return d.session.Close()
}

func (d *DiscordTransport) Send(channelID, content string) (string, error) {
	msg, err := d.session.ChannelMessageSend(channelID, content)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return msg.ID, nil
}

func (d *DiscordTransport) SendEmbed(channelID string, embed Embed) (string, error) {
	fields := make([]*discordgo.MessageEmbedField, 0, len(embed.Fields))
	for _, f := range embed.Fields {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  f.Name,
			Value: f.Value,
		})
	}
	msg, err := d.session.ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Fields:      fields,
	})
	if err != nil {
		return "", fmt.Errorf("send embed: %w", err)
	}
	return msg.ID, nil
}

func (d *DiscordTransport) React(channelID, messageID, emoji string) error {
	if err := d.session.MessageReactionAdd(channelID, messageID, emoji); err != nil {
		return fmt.Errorf("add reaction: %w", err)
	}
	return nil
}

func (d *DiscordTransport) Delete(channelID, messageID string) error {
	if err := d.session.ChannelMessageDelete(channelID, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (d *DiscordTransport) DirectMessage(userID, content string) error {
	ch, err := d.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("open DM channel: %w", err)
	}
	if _, err := d.session.ChannelMessageSend(ch.ID, content); err != nil {
		return fmt.Errorf("send DM: %w", err)
	}
	return nil
}

func (d *DiscordTransport) BotUserID() string { return d.selfID }

// IsConnectionReset reports whether err belongs to the transient,
// self-healing connection fault class that must never be journaled.
func IsConnectionReset(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionReset) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "websocket: close")
}
