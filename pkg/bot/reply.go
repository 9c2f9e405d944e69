package bot

import (
	"strings"

	"github.com/yomikobot/yomiko/pkg/config"
	"github.com/yomikobot/yomiko/pkg/transport"
)

// Reply is the tagged reply shape: plain text or a structured embed.
// Exactly one branch is set.
type Reply struct {
	Plain string
	Embed *transport.Embed
}

// PlainReply wraps text in a Reply.
func PlainReply(text string) Reply {
	return Reply{Plain: text}
}

// ReplyFromTemplate converts a configured template into a Reply.
func ReplyFromTemplate(t config.Template) Reply {
	if !t.IsStructured() {
		return Reply{Plain: t.Text}
	}
	embed := &transport.Embed{
		Title:       t.Title,
		Description: t.Description,
	}
	for _, f := range t.Fields {
		embed.Fields = append(embed.Fields, transport.EmbedField{
			Name:  f.Name,
			Value: f.Value,
		})
	}
	return Reply{Embed: embed}
}

// sendReply delivers a Reply, degrading a structured reply to plain text
// when embeds are inactive. Returns the sent message id.
func (b *Bot) sendReply(channelID string, r Reply) (string, error) {
	if r.Embed == nil {
		return b.messenger.Send(channelID, r.Plain)
	}
	if b.cfg.EmbedsActive {
		return b.messenger.SendEmbed(channelID, *r.Embed)
	}
	return b.messenger.Send(channelID, DegradeEmbed(*r.Embed))
}

// DegradeEmbed renders an embed as plain text: a bold title line, the
// description, then each field (bold header + body), blank-line separated.
func DegradeEmbed(e transport.Embed) string {
	var parts []string
	if e.Title != "" {
		parts = append(parts, "**"+e.Title+"**")
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	for _, f := range e.Fields {
		if f.Name != "" {
			parts = append(parts, "**"+f.Name+"**\n"+f.Value)
		} else {
			parts = append(parts, f.Value)
		}
	}
	return strings.Join(parts, "\n\n")
}
