package bot

import (
	"fmt"
	"time"

	"github.com/yomikobot/yomiko/pkg/logger"
	"github.com/yomikobot/yomiko/pkg/store"
	"github.com/yomikobot/yomiko/pkg/transport"
)

// Ellipsis marks a truncated first part.
const Ellipsis = "…"

// respond sends the rendered transcription as one or two messages and,
// on success, records the reply↔origin association. Send failure leaves
// no partial record behind — the user just sees no reply.
func (b *Bot) respond(origin transport.MessageEvent, rendered string) (*store.ReplyRecord, error) {
	runes := []rune(rendered)
	truncated := len(runes) > b.cfg.CharLimit

	outcome := func(status string, err error) {
		fields := map[string]interface{}{
			"origin":    origin.MessageID,
			"truncated": truncated,
		}
		if err != nil {
			fields["error"] = err.Error()
		}
		if status == "sent" {
			logger.InfoCF("bot", "Reply "+status, fields)
		} else {
			logger.WarnCF("bot", "Reply "+status, fields)
		}
	}

	var replies []Reply
	if truncated {
		replies = []Reply{
			PlainReply(string(runes[:b.cfg.CharLimit]) + Ellipsis),
			ReplyFromTemplate(b.cfg.Timeout),
		}
	} else {
		replies = []Reply{PlainReply(rendered)}
	}

	var sentIDs []string
	for _, r := range replies {
		id, err := b.sendReply(origin.ChannelID, r)
		if err != nil {
			outcome("send failed", err)
			return nil, fmt.Errorf("send reply for %s: %w", origin.MessageID, err)
		}
		sentIDs = append(sentIDs, id)
		b.tagForDeletion(origin.ChannelID, id)
	}

	rec := store.ReplyRecord{
		OriginMessageID: origin.MessageID,
		OriginChannelID: origin.ChannelID,
		OriginAuthorID:  origin.AuthorID,
		ReplyMessageIDs: sentIDs,
		CreatedAt:       time.Now().UTC(),
	}
	if err := b.store.AddReply(rec); err != nil {
		outcome("sent but not recorded", err)
		return nil, fmt.Errorf("record reply for %s: %w", origin.MessageID, err)
	}

	outcome("sent", nil)
	return &rec, nil
}

// tagForDeletion adds the delete emoji to a sent reply so the author can
// remove it with one click. Best-effort: a failure is logged, never fatal.
func (b *Bot) tagForDeletion(channelID, messageID string) {
	if err := b.messenger.React(channelID, messageID, b.cfg.DeleteEmoji); err != nil {
		logger.WarnCF("bot", "Failed to tag reply with delete emoji", map[string]interface{}{
			"message": messageID,
			"error":   err.Error(),
		})
	}
}
