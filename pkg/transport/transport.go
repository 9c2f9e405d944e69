// Package transport is the chat-transport boundary. The pipeline consumes
// plain event structs and talks to the platform through the Messenger
// interface; the discordgo adapter lives in discord.go. Nothing outside
// this package imports discordgo.
package transport

// MessageEvent is a message posted to a channel the bot can read.
type MessageEvent struct {
	MessageID string
	ChannelID string
	AuthorID  string
	AuthorBot bool
	Content   string
}

// ReactionEvent is an emoji reaction added to a message.
type ReactionEvent struct {
	MessageID string
	ChannelID string
	UserID    string
	Emoji     string
}

// Embed is a structured reply payload. When the transport cannot or should
// not render embeds, the caller degrades it to plain text first.
type Embed struct {
	Title       string
	Description string
	Fields      []EmbedField
}

// EmbedField is one titled body inside an embed.
type EmbedField struct {
	Name  string
	Value string
}

// Messenger is the outbound half of the transport. Every call may fail
// asynchronously on the platform side; callers decide per call site
// whether a failure is fatal, logged, or ignored.
type Messenger interface {
	// Send posts plain text and returns the new message's id.
	Send(channelID, content string) (messageID string, err error)

	// SendEmbed posts a structured message and returns the new message's id.
	SendEmbed(channelID string, embed Embed) (messageID string, err error)

	// React adds an emoji reaction to an existing message.
	React(channelID, messageID, emoji string) error

	// Delete removes a message the bot is allowed to delete.
	Delete(channelID, messageID string) error

	// DirectMessage opens (or reuses) a DM channel to userID and sends text.
	DirectMessage(userID, content string) error

	// BotUserID is the bot's own user id, for self-reaction filtering.
	BotUserID() string
}
