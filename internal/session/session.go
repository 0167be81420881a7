// Package session owns the catalog of conversation sessions and the
// lifecycle of the active one.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"GuardChat/internal/cache"
	"GuardChat/internal/conversation"
	"GuardChat/internal/gateway"
)

// Session is one catalog entry.
type Session struct {
	ID           string    `json:"id"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview_text"`
	LastActivity time.Time `json:"last_activity"`
}

// Gateway is the slice of the gateway client the manager needs.
type Gateway interface {
	ListSessions(ctx context.Context) ([]gateway.SessionSummary, error)
	History(ctx context.Context, sessionID string) ([]gateway.HistoryEntry, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// refreshTimeout bounds the fire-and-forget catalog refreshes.
const refreshTimeout = 15 * time.Second

// Manager maintains the session catalog and swaps the active
// conversation on create/select/delete. Catalog reads fail soft: a stale
// sidebar beats a crashed one.
type Manager struct {
	mu sync.Mutex

	gw      Gateway
	logger  *slog.Logger
	conv    *conversation.Conversation
	catalog cache.Snapshot[[]Session]
}

// NewManager creates a manager around an existing conversation.
func NewManager(gw Gateway, logger *slog.Logger, conv *conversation.Conversation) *Manager {
	return &Manager{gw: gw, logger: logger, conv: conv}
}

// NewID allocates a fresh locally-unique session id. Sessions are created
// lazily server-side: the gateway first hears about this id on the first
// submitted turn.
func NewID() string {
	return "session_" + uuid.NewString()
}

// Conversation returns the active conversation.
func (m *Manager) Conversation() *conversation.Conversation {
	return m.conv
}

// ActiveID returns the id of the active session.
func (m *Manager) ActiveID() string {
	return m.conv.SessionID()
}

// Sessions returns the last successfully fetched catalog; possibly stale,
// never an error.
func (m *Manager) Sessions() []Session {
	sessions, _ := m.catalog.Get()
	return sessions
}

// Refresh fetches the catalog from the gateway. On failure the previous
// catalog is kept and the error is only logged.
func (m *Manager) Refresh(ctx context.Context) []Session {
	summaries, err := m.gw.ListSessions(ctx)
	if err != nil {
		m.logger.Warn("session catalog refresh failed, keeping cached list", "error", err)
		return m.Sessions()
	}

	sessions := make([]Session, 0, len(summaries))
	for _, s := range summaries {
		sessions = append(sessions, Session{
			ID:           s.SessionID,
			MessageCount: s.MessageCount,
			Preview:      s.LastMessage,
			LastActivity: gateway.ParseTS(s.Timestamp),
		})
	}
	m.catalog.Set(sessions)
	return sessions
}

// Create swaps the active conversation to a fresh empty session. The
// gateway is not contacted until the first turn is submitted.
func (m *Manager) Create() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := NewID()
	m.conv.Bind(id)
	m.logger.Info("created new session", "session_id", id)
	m.refreshAsync()
	return Session{ID: id}
}

// Select hydrates sessionID's history and makes it the active session,
// replacing the transcript wholesale. On failure the active session is
// left untouched.
func (m *Manager) Select(ctx context.Context, sessionID string) error {
	history, err := m.gw.History(ctx, sessionID)
	if err != nil {
		m.logger.Warn("failed to load session history", "session_id", sessionID, "error", err)
		return err
	}
	m.conv.Replace(sessionID, history)
	m.logger.Info("loaded session", "session_id", sessionID, "messages", len(history))
	return nil
}

// Delete requests deletion of sessionID. If it is the active session, the
// active conversation swaps to a fresh empty session immediately; the
// delete itself and the catalog refresh run fire-and-forget so the UI
// never blocks on them.
func (m *Manager) Delete(sessionID string) {
	m.mu.Lock()
	if sessionID == m.conv.SessionID() {
		next := NewID()
		m.conv.Bind(next)
		m.logger.Info("active session deleted, swapped to new session", "deleted", sessionID, "session_id", next)
	}
	m.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := m.gw.DeleteSession(ctx, sessionID); err != nil {
			m.logger.Warn("session delete failed", "session_id", sessionID, "error", err)
		}
		m.Refresh(ctx)
	}()
}

func (m *Manager) refreshAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		m.Refresh(ctx)
	}()
}
