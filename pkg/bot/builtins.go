package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/yomikobot/yomiko/pkg/commands"
	"github.com/yomikobot/yomiko/pkg/transport"
)

// builtins returns the commands every yomiko instance ships with.
func (b *Bot) builtins() map[string]commands.Handler {
	return map[string]commands.Handler{
		"help":   b.cmdHelp,
		"rules":  b.cmdRules,
		"ping":   b.cmdPing,
		"errors": b.cmdErrors,
	}
}

func (b *Bot) cmdHelp(ctx context.Context, msg transport.MessageEvent, args []string) error {
	_, err := b.sendReply(msg.ChannelID, ReplyFromTemplate(b.cfg.Help))
	return err
}

func (b *Bot) cmdRules(ctx context.Context, msg transport.MessageEvent, args []string) error {
	var lines []string
	for _, set := range b.ruleStore.All() {
		lines = append(lines, fmt.Sprintf("%s (%d rules)", set.Name, len(set.Rules)))
	}
	if len(lines) == 0 {
		lines = []string{"no rule sets loaded"}
	}
	_, err := b.messenger.Send(msg.ChannelID, strings.Join(lines, "\n"))
	return err
}

func (b *Bot) cmdPing(ctx context.Context, msg transport.MessageEvent, args []string) error {
	_, err := b.messenger.Send(msg.ChannelID, "pong")
	return err
}

// cmdErrors reports journal sizes. Owner only; anyone else gets silence.
func (b *Bot) cmdErrors(ctx context.Context, msg transport.MessageEvent, args []string) error {
	if msg.AuthorID != b.cfg.OwnerID {
		return nil
	}
	total, unnotified, err := b.store.ErrorCounts()
	if err != nil {
		return err
	}
	_, err = b.messenger.Send(msg.ChannelID,
		fmt.Sprintf("error journal: %d total, %d unnotified", total, unnotified))
	return err
}
