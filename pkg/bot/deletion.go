package bot

import (
	"errors"

	"github.com/yomikobot/yomiko/pkg/logger"
	"github.com/yomikobot/yomiko/pkg/store"
	"github.com/yomikobot/yomiko/pkg/transport"
)

// handleReaction is the deletion state machine. A reply record moves from
// Active to Deleted when the origin author reacts with the configured
// delete emoji on the origin message or any of the bot's replies. Deleted
// is terminal: a repeat reaction finds no record and is a silent no-op.
func (b *Bot) handleReaction(ev transport.ReactionEvent) {
	if ev.UserID == b.messenger.BotUserID() {
		return
	}
	if ev.Emoji != b.cfg.DeleteEmoji {
		return
	}

	rec, err := b.store.ReplyByMessage(ev.MessageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return
		}
		logger.ErrorCF("bot", "Reply lookup failed", map[string]interface{}{
			"message": ev.MessageID,
			"error":   err.Error(),
		})
		return
	}
	if rec.OriginAuthorID != ev.UserID {
		logger.DebugCF("bot", "Delete reaction from non-author ignored", map[string]interface{}{
			"message": ev.MessageID,
			"reactor": ev.UserID,
		})
		return
	}

	// Transport deletion first, record second. If the record delete fails
	// the orphan is harmless — a retry hits the idempotent no-op path.
	// The reverse order would strand replies nobody can delete anymore.
	for _, id := range rec.ReplyMessageIDs {
		if err := b.messenger.Delete(rec.OriginChannelID, id); err != nil {
			logger.WarnCF("bot", "Failed to delete reply message", map[string]interface{}{
				"message": id,
				"error":   err.Error(),
			})
		}
	}
	if err := b.store.DeleteReply(rec.OriginMessageID); err != nil {
		logger.ErrorCF("bot", "Failed to delete reply record", map[string]interface{}{
			"origin": rec.OriginMessageID,
			"error":  err.Error(),
		})
		return
	}

	logger.InfoCF("bot", "Reply deleted on author request", map[string]interface{}{
		"origin":  rec.OriginMessageID,
		"replies": len(rec.ReplyMessageIDs),
	})
}
