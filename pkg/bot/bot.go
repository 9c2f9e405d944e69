// Package bot wires the pipeline together: readiness gate, message
// pipeline (transformation first, commands second), reply orchestration,
// reaction-triggered deletion, and the crash handler hookup.
package bot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/adhocore/gronx"

	"github.com/yomikobot/yomiko/pkg/commands"
	"github.com/yomikobot/yomiko/pkg/config"
	"github.com/yomikobot/yomiko/pkg/engine"
	"github.com/yomikobot/yomiko/pkg/journal"
	"github.com/yomikobot/yomiko/pkg/logger"
	"github.com/yomikobot/yomiko/pkg/rules"
	"github.com/yomikobot/yomiko/pkg/store"
	"github.com/yomikobot/yomiko/pkg/transport"
)

// Bot owns the application state: the immutable rule store and engine,
// the persistence layer, the command table, and the ready flag. Event
// handlers run on transport goroutines, so the flag is atomic.
type Bot struct {
	cfg       *config.Config
	ruleStore *rules.Store
	engine    *engine.Engine
	store     *store.Store
	journal   *journal.Journal
	router    *commands.Router
	messenger transport.Messenger

	ready     atomic.Bool
	startedAt time.Time
	handled   atomic.Int64
}

// New assembles a bot from its loaded parts. Commands are registered here,
// before any event can arrive; the router is never mutated afterwards.
func New(cfg *config.Config, ruleStore *rules.Store, st *store.Store, jr *journal.Journal, m transport.Messenger) *Bot {
	b := &Bot{
		cfg:       cfg,
		ruleStore: ruleStore,
		engine:    engine.New(ruleStore),
		store:     st,
		journal:   jr,
		router:    commands.NewRouter(cfg.Prefix),
		messenger: m,
		startedAt: time.Now(),
	}
	b.router.RegisterMany(b.builtins())
	return b
}

// Router exposes the command table for pre-start registration of extra
// commands.
func (b *Bot) Router() *commands.Router { return b.router }

// Ready reports whether the readiness gate is open.
func (b *Bot) Ready() bool { return b.ready.Load() }

// Handlers returns the transport callbacks, each wrapped so that a panic
// in one event's pipeline reaches the crash handler instead of unwinding
// into the transport library.
func (b *Bot) Handlers() transport.Handlers {
	return transport.Handlers{
		OnReady: func() {
			b.guard("bot", func() { b.onReady() })
		},
		OnMessage: func(ev transport.MessageEvent) {
			b.guard("bot", func() { b.handleMessage(ev) })
		},
		OnReaction: func(ev transport.ReactionEvent) {
			if !b.ready.Load() {
				logger.DebugC("bot", "Reaction dropped, not ready")
				return
			}
			b.guard("bot", func() { b.handleReaction(ev) })
		},
		OnError: func(err error) {
			b.journal.Capture("transport", err)
		},
	}
}

// guard recovers a panic from one event's pipeline and hands it to the
// crash handler. Other in-flight events are unaffected; the crash handler
// decides whether the process survives.
func (b *Bot) guard(component string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			b.journal.Capture(component, fmt.Errorf("panic: %v", rec))
		}
	}()
	fn()
}

// onReady runs once per gateway ready: surface journaled crashes, then
// open the gate. Events observed before this point were dropped, not
// queued — the rule store and reply tracking must be fully set up first.
func (b *Bot) onReady() {
	b.journal.NotifyPending(b.messenger, b.cfg.OwnerID)
	if b.ready.CompareAndSwap(false, true) {
		logger.InfoCF("bot", "Ready", map[string]interface{}{
			"rule_sets": b.ruleStore.Count(),
			"commands":  len(b.router.Names()),
		})
	}
}

// handleMessage is the per-message pipeline: transformation first, and
// only if that produced nothing, command routing. The two are mutually
// exclusive and strictly ordered for any single message.
func (b *Bot) handleMessage(ev transport.MessageEvent) {
	if !b.ready.Load() {
		logger.DebugC("bot", "Message dropped, not ready")
		return
	}
	if ev.AuthorBot || ev.AuthorID == b.messenger.BotUserID() {
		return
	}

	if rendered := b.engine.SearchJoined(ev.Content); rendered != "" {
		b.handled.Add(1)
		// respond logs its own failures; the user just sees no reply.
		b.respond(ev, rendered)
		return
	}

	if b.router.Dispatch(context.Background(), ev) {
		b.handled.Add(1)
	}
}

// StartStatusReport launches the optional cron-scheduled owner report.
// Returns an error on an invalid expression; does nothing when the
// schedule is unset.
func (b *Bot) StartStatusReport(ctx context.Context) error {
	if b.cfg.StatusCron == "" {
		return nil
	}
	g := gronx.New()
	if !g.IsValid(b.cfg.StatusCron) {
		return fmt.Errorf("invalid status_cron expression %q", b.cfg.StatusCron)
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				due, err := g.IsDue(b.cfg.StatusCron)
				if err != nil || !due {
					continue
				}
				b.sendStatusReport()
			}
		}
	}()
	return nil
}

func (b *Bot) sendStatusReport() {
	msg := fmt.Sprintf("yomiko up %s, %d message(s) handled, %d rule set(s) loaded",
		time.Since(b.startedAt).Round(time.Second), b.handled.Load(), b.ruleStore.Count())
	if err := b.messenger.DirectMessage(b.cfg.OwnerID, msg); err != nil {
		logger.WarnCF("bot", "Status report delivery failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
