// Package journal is the crash handler: it persists uncaught faults to
// the error journal and halts the process, and on the next startup it
// surfaces what it recorded. Transient connection resets are explicitly
// exempt — they are transport noise, not engine faults.
package journal

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yomikobot/yomiko/pkg/logger"
	"github.com/yomikobot/yomiko/pkg/store"
	"github.com/yomikobot/yomiko/pkg/transport"
)

// Journal records faults and raises crash notifications.
type Journal struct {
	store *store.Store

	// exit is swapped out in tests; production uses os.Exit.
	exit func(code int)
}

// New creates a journal over the store.
func New(st *store.Store) *Journal {
	return &Journal{store: st, exit: os.Exit}
}

// SetExitFunc overrides process termination. Tests only.
func (j *Journal) SetExitFunc(exit func(int)) { j.exit = exit }

// Capture handles a fault surfaced from a top-level event handler.
// Connection resets are logged and the process continues; anything else
// is journaled and the process exits non-zero. Journaling failure still
// exits — an unrecorded crash beats running in an unknown state.
func (j *Journal) Capture(component string, err error) {
	if err == nil {
		return
	}
	if transport.IsConnectionReset(err) {
		logger.WarnCF(component, "Transient connection fault, ignoring", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	logger.ErrorCF(component, "Unrecoverable fault, halting", map[string]interface{}{
		"error": err.Error(),
	})
	rec := store.ErrorRecord{
		ID:         uuid.NewString(),
		ErrorText:  fmt.Sprintf("[%s] %s", component, err.Error()),
		OccurredAt: time.Now().UTC(),
	}
	if werr := j.store.AddError(rec); werr != nil {
		logger.ErrorCF("journal", "Failed to journal fault", map[string]interface{}{
			"error": werr.Error(),
		})
	}
	j.exit(1)
}

// NotifyPending surfaces errors journaled before the previous shutdown:
// it DMs a summary to the owner and marks the records notified. Called
// once at startup, after the transport is ready. A notification failure
// is logged and left pending for the next restart.
func (j *Journal) NotifyPending(m transport.Messenger, ownerID string) {
	if ownerID == "" {
		return
	}

	pending, err := j.store.UnnotifiedErrors()
	if err != nil {
		logger.ErrorCF("journal", "Failed to read pending errors", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if len(pending) == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d error(s) since last restart:\n", len(pending))
	ids := make([]string, 0, len(pending))
	for _, rec := range pending {
		fmt.Fprintf(&b, "• %s — %s\n", rec.OccurredAt.Format("2006-01-02 15:04:05"), rec.ErrorText)
		ids = append(ids, rec.ID)
	}

	if err := m.DirectMessage(ownerID, b.String()); err != nil {
		logger.WarnCF("journal", "Failed to deliver crash summary", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if err := j.store.MarkNotified(ids); err != nil {
		logger.ErrorCF("journal", "Failed to mark errors notified", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	logger.InfoCF("journal", "Crash summary delivered", map[string]interface{}{
		"count": len(pending),
	})
}
