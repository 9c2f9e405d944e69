// Package commands routes prefixed messages to registered handlers.
// Registration happens once during startup, before the event loop runs;
// the table is never mutated afterwards.
package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/yomikobot/yomiko/pkg/logger"
	"github.com/yomikobot/yomiko/pkg/transport"
)

// Handler is a command callback. It receives the originating message and
// the whitespace-split argument tokens. A returned error is logged with
// the command name and never propagates further.
type Handler func(ctx context.Context, msg transport.MessageEvent, args []string) error

// Router matches prefixed messages and dispatches handlers.
type Router struct {
	prefix   string
	matcher  *regexp.Regexp
	handlers map[string]Handler
}

// NewRouter builds a router for the given command prefix. The prefix is
// quoted, so "." or "$" are treated literally, and the match is anchored
// to the start of the message.
func NewRouter(prefix string) *Router {
	matcher := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(\S+)(?: (.*))?$`)
	return &Router{
		prefix:   prefix,
		matcher:  matcher,
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a command name. Registering a name twice
// overwrites the earlier binding.
func (r *Router) Register(name string, h Handler) {
	r.handlers[name] = h
}

// RegisterMany binds a batch of handlers.
func (r *Router) RegisterMany(m map[string]Handler) {
	for name, h := range m {
		r.Register(name, h)
	}
}

// Names returns the registered command names.
func (r *Router) Names() []string {
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	return out
}

// Dispatch parses the message and, if it names a registered command,
// invokes its handler. The return value reports whether a handler ran.
// Unknown prefixes and unknown commands fall through silently; handler
// errors and panics are contained here so one bad command cannot take
// the pipeline down.
func (r *Router) Dispatch(ctx context.Context, msg transport.MessageEvent) bool {
	m := r.matcher.FindStringSubmatch(msg.Content)
	if m == nil {
		return false
	}

	name := m[1]
	handler, ok := r.handlers[name]
	if !ok {
		return false
	}

	var args []string
	if m[2] != "" {
		args = strings.Split(m[2], " ")
	}

	r.invoke(ctx, name, handler, msg, args)
	return true
}

func (r *Router) invoke(ctx context.Context, name string, h Handler, msg transport.MessageEvent, args []string) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorCF("commands", "Command handler panicked", map[string]interface{}{
				"command": name,
				"panic":   fmt.Sprintf("%v", rec),
			})
		}
	}()

	if err := h(ctx, msg, args); err != nil {
		logger.ErrorCF("commands", "Command handler failed", map[string]interface{}{
			"command": name,
			"error":   err.Error(),
		})
	}
}
