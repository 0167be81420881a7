package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GuardChat/internal/conversation"
	"GuardChat/internal/gateway"
)

type fakeGateway struct {
	mu        sync.Mutex
	summaries []gateway.SessionSummary
	listErr   error
	history   map[string][]gateway.HistoryEntry
	histErr   error
	deleted   []string
	deleteErr error
}

func (f *fakeGateway) ListSessions(ctx context.Context) ([]gateway.SessionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.summaries, nil
}

func (f *fakeGateway) History(ctx context.Context, sessionID string) ([]gateway.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.histErr != nil {
		return nil, f.histErr
	}
	return f.history[sessionID], nil
}

func (f *fakeGateway) DeleteSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, sessionID)
	return f.deleteErr
}

func (f *fakeGateway) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// Chat and BaseURL satisfy the conversation's gateway dependency; the
// manager tests never submit turns.
func (f *fakeGateway) Chat(ctx context.Context, tenant, sessionID, message string) (*gateway.ChatResponse, error) {
	return &gateway.ChatResponse{OK: true}, nil
}

func (f *fakeGateway) BaseURL() string { return "http://gateway.test:8000" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(gw *fakeGateway) *Manager {
	conv := conversation.New(gw, testLogger(), "default", NewID())
	return NewManager(gw, testLogger(), conv)
}

func TestNewIDIsUnique(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "session_")
}

func TestRefreshMapsCatalog(t *testing.T) {
	gw := &fakeGateway{summaries: []gateway.SessionSummary{
		{SessionID: "s1", MessageCount: 4, LastMessage: "hi there", Timestamp: "2026-08-20T12:00:00"},
		{SessionID: "s2", MessageCount: 1, LastMessage: "hello"},
	}}
	m := newManager(gw)

	sessions := m.Refresh(context.Background())
	require.Len(t, sessions, 2)
	assert.Equal(t, "s1", sessions[0].ID)
	assert.Equal(t, 4, sessions[0].MessageCount)
	assert.Equal(t, "hi there", sessions[0].Preview)
	assert.Equal(t, 2026, sessions[0].LastActivity.Year())
	assert.Equal(t, sessions, m.Sessions())
}

func TestRefreshFailureKeepsCachedCatalog(t *testing.T) {
	gw := &fakeGateway{summaries: []gateway.SessionSummary{{SessionID: "s1"}}}
	m := newManager(gw)
	require.Len(t, m.Refresh(context.Background()), 1)

	gw.mu.Lock()
	gw.listErr = errors.New("gateway down")
	gw.mu.Unlock()

	// Fail soft: the stale catalog keeps serving, no error surfaces.
	sessions := m.Refresh(context.Background())
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].ID)
}

func TestCreateSwapsActiveWithoutGatewayCall(t *testing.T) {
	gw := &fakeGateway{}
	m := newManager(gw)
	before := m.ActiveID()

	created := m.Create()
	assert.NotEqual(t, before, created.ID)
	assert.Equal(t, created.ID, m.ActiveID())
	assert.Empty(t, m.Conversation().Transcript())
	// Creation is local; only the first submitted turn reaches the gateway.
	assert.Empty(t, gw.deletedIDs())
}

func TestSelectHydratesHistory(t *testing.T) {
	gw := &fakeGateway{history: map[string][]gateway.HistoryEntry{
		"s7": {
			{Role: "user", Content: "q"},
			{Role: "assistant", Content: "a", RiskLevel: "low", Action: "ALLOW"},
		},
	}}
	m := newManager(gw)

	require.NoError(t, m.Select(context.Background(), "s7"))
	assert.Equal(t, "s7", m.ActiveID())
	assert.Len(t, m.Conversation().Transcript(), 2)
}

func TestSelectFailureLeavesActiveUntouched(t *testing.T) {
	gw := &fakeGateway{histErr: errors.New("not found")}
	m := newManager(gw)
	active := m.ActiveID()

	assert.Error(t, m.Select(context.Background(), "missing"))
	assert.Equal(t, active, m.ActiveID())
}

func TestDeleteActiveSwapsImmediately(t *testing.T) {
	gw := &fakeGateway{}
	m := newManager(gw)
	victim := m.ActiveID()

	m.Delete(victim)

	// The swap happens before the remote delete resolves.
	assert.NotEqual(t, victim, m.ActiveID())
	assert.Empty(t, m.Conversation().Transcript())

	require.Eventually(t, func() bool {
		ids := gw.deletedIDs()
		return len(ids) == 1 && ids[0] == victim
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDeleteInactiveKeepsActive(t *testing.T) {
	gw := &fakeGateway{}
	m := newManager(gw)
	active := m.ActiveID()

	m.Delete("someone_else")
	assert.Equal(t, active, m.ActiveID())

	require.Eventually(t, func() bool {
		return len(gw.deletedIDs()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDeleteFailureStillSwaps(t *testing.T) {
	gw := &fakeGateway{deleteErr: errors.New("boom")}
	m := newManager(gw)
	victim := m.ActiveID()

	m.Delete(victim)
	assert.NotEqual(t, victim, m.ActiveID())
}
