package journal

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yomikobot/yomiko/pkg/store"
	"github.com/yomikobot/yomiko/pkg/transport"
)

type fakeMessenger struct {
	dms     []string
	dmError error
}

func (f *fakeMessenger) Send(channelID, content string) (string, error)            { return "", nil }
func (f *fakeMessenger) SendEmbed(ch string, e transport.Embed) (string, error)    { return "", nil }
func (f *fakeMessenger) React(channelID, messageID, emoji string) error            { return nil }
func (f *fakeMessenger) Delete(channelID, messageID string) error                  { return nil }
func (f *fakeMessenger) BotUserID() string                                         { return "bot" }
func (f *fakeMessenger) DirectMessage(userID, content string) error {
	if f.dmError != nil {
		return f.dmError
	}
	f.dms = append(f.dms, content)
	return nil
}

func newTestJournal(t *testing.T) (*Journal, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st), st
}

func TestCaptureJournalsAndExits(t *testing.T) {
	jr, st := newTestJournal(t)

	exitCode := -1
	jr.SetExitFunc(func(code int) { exitCode = code })

	jr.Capture("bot", errors.New("boom"))

	assert.Equal(t, 1, exitCode)
	pending, err := st.UnnotifiedErrors()
	require.NoError(t, err)
	require.Len(t, pending, 1, "exactly one record per fault")
	assert.Contains(t, pending[0].ErrorText, "boom")
	assert.Contains(t, pending[0].ErrorText, "[bot]")
}

func TestCaptureIgnoresConnectionResets(t *testing.T) {
	jr, st := newTestJournal(t)
	jr.SetExitFunc(func(code int) { t.Fatal("connection reset must not exit") })

	jr.Capture("transport", transport.ErrConnectionReset)
	jr.Capture("transport", fmt.Errorf("read tcp: connection reset by peer"))
	jr.Capture("transport", nil)

	pending, err := st.UnnotifiedErrors()
	require.NoError(t, err)
	assert.Empty(t, pending, "connection resets never reach the journal")
}

func TestNotifyPendingMarksRecords(t *testing.T) {
	jr, st := newTestJournal(t)
	require.NoError(t, st.AddError(store.ErrorRecord{ID: "e1", ErrorText: "old crash"}))

	m := &fakeMessenger{}
	jr.NotifyPending(m, "owner")

	require.Len(t, m.dms, 1)
	assert.Contains(t, m.dms[0], "old crash")

	pending, err := st.UnnotifiedErrors()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestNotifyPendingLeavesRecordsOnDeliveryFailure(t *testing.T) {
	jr, st := newTestJournal(t)
	require.NoError(t, st.AddError(store.ErrorRecord{ID: "e1", ErrorText: "old crash"}))

	m := &fakeMessenger{dmError: errors.New("dm closed")}
	jr.NotifyPending(m, "owner")

	pending, err := st.UnnotifiedErrors()
	require.NoError(t, err)
	assert.Len(t, pending, 1, "undelivered summary stays pending for the next restart")
}

func TestNotifyPendingNoOwner(t *testing.T) {
	jr, st := newTestJournal(t)
	require.NoError(t, st.AddError(store.ErrorRecord{ID: "e1", ErrorText: "old crash"}))

	m := &fakeMessenger{}
	jr.NotifyPending(m, "")
	assert.Empty(t, m.dms)

	pending, err := st.UnnotifiedErrors()
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestNotifyPendingNothingToReport(t *testing.T) {
	jr, _ := newTestJournal(t)

	m := &fakeMessenger{}
	jr.NotifyPending(m, "owner")
	assert.Empty(t, m.dms)
}
