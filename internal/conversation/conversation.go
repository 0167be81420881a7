// Package conversation drives a single session's message exchange with
// the gateway: submit, in-flight placeholder, resolution, failure.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"GuardChat/internal/gateway"
	"GuardChat/internal/risk"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Phase describes a message's lifecycle.
type Phase string

// A failed turn resolves to a final-phase synthetic message, so only
// two phases ever appear in a transcript.
const (
	PhaseFinal   Phase = "final"
	PhasePending Phase = "pending"
)

// Message is one transcript entry.
type Message struct {
	ID        string
	Role      string
	Text      string
	CreatedAt time.Time
	Verdict   *gateway.Verdict
	Phase     Phase
}

// Gateway is the slice of the gateway client the state machine needs.
type Gateway interface {
	Chat(ctx context.Context, tenant, sessionID, message string) (*gateway.ChatResponse, error)
	BaseURL() string
}

// Conversation is the per-session state machine. At most one turn is in
// flight at a time; a second Send while submitting is a silent no-op.
// All mutation happens under mu; the network call itself does not hold
// the lock, and its resolution is applied only if the conversation still
// points at the session the request was issued for (epoch check).
type Conversation struct {
	mu sync.Mutex

	gw     Gateway
	logger *slog.Logger
	tenant string

	sessionID  string
	epoch      uint64
	submitting bool
	messages   []Message
	risk       risk.Tracker
}

// New creates a conversation bound to an empty session.
func New(gw Gateway, logger *slog.Logger, tenant, sessionID string) *Conversation {
	return &Conversation{
		gw:        gw,
		logger:    logger,
		tenant:    tenant,
		sessionID: sessionID,
	}
}

// SessionID returns the session this conversation is bound to.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Submitting reports whether a turn is currently in flight.
func (c *Conversation) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// RiskPercent returns the session's current risk indicator in [0,100].
func (c *Conversation) RiskPercent() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.risk.Percent()
}

// Transcript returns a copy of the current message list.
func (c *Conversation) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Bind rebinds the conversation to a fresh, empty session. Any in-flight
// resolution for the previous session is discarded when it arrives.
func (c *Conversation) Bind(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
	c.epoch++
	c.submitting = false
	c.messages = nil
	c.risk.Reset()
}

// Replace rebinds the conversation to sessionID and replaces the
// transcript wholesale with the hydrated history. Replacement, not merge:
// partial state from a previously viewed session must not survive.
func (c *Conversation) Replace(sessionID string, history []gateway.HistoryEntry) {
	msgs := make([]Message, 0, len(history))
	verdicts := make([]*gateway.Verdict, 0, len(history))
	for _, h := range history {
		var v *gateway.Verdict
		if h.Role == RoleAssistant && (h.RiskLevel != "" || h.Action != "") {
			v = &gateway.Verdict{RiskLevel: h.RiskLevel, Action: h.Action}
			verdicts = append(verdicts, v)
		}
		msgs = append(msgs, Message{
			ID:        uuid.NewString(),
			Role:      h.Role,
			Text:      h.Content,
			CreatedAt: gateway.ParseTS(h.TS),
			Verdict:   v,
			Phase:     PhaseFinal,
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
	c.epoch++
	c.submitting = false
	c.messages = msgs
	c.risk.Recompute(verdicts)
}

// Send submits one turn. It returns false without side effects when the
// text is blank or another turn is already in flight. It blocks until the
// turn resolves; transport failures become a synthetic assistant message
// rather than an error, so the user can simply retry.
func (c *Conversation) Send(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return false
	}
	c.submitting = true
	now := time.Now()
	c.messages = append(c.messages,
		Message{ID: uuid.NewString(), Role: RoleUser, Text: text, CreatedAt: now, Phase: PhaseFinal},
		Message{ID: uuid.NewString(), Role: RoleAssistant, CreatedAt: now, Phase: PhasePending},
	)
	sessionID := c.sessionID
	epoch := c.epoch
	tenant := c.tenant
	c.mu.Unlock()

	resp, err := c.gw.Chat(ctx, tenant, sessionID, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		// The active session changed while this turn was in flight;
		// the transcript it belonged to is gone.
		c.logger.Info("discarding stale chat resolution", "session_id", sessionID)
		return true
	}

	c.dropPendingLocked()
	if err != nil {
		c.logger.Error("chat turn failed", "session_id", sessionID, "error", err)
		c.messages = append(c.messages, Message{
			ID:        uuid.NewString(),
			Role:      RoleAssistant,
			Text:      fmt.Sprintf("Could not reach the gateway at %s: %v. Your message was not processed; please retry.", c.gw.BaseURL(), err),
			CreatedAt: time.Now(),
			Phase:     PhaseFinal,
		})
	} else {
		verdict := resp.Verdict()
		c.messages = append(c.messages, Message{
			ID:        uuid.NewString(),
			Role:      RoleAssistant,
			Text:      resp.Response,
			CreatedAt: time.Now(),
			Verdict:   verdict,
			Phase:     PhaseFinal,
		})
		c.risk.Apply(verdict)
	}
	c.submitting = false
	return true
}

func (c *Conversation) dropPendingLocked() {
	kept := c.messages[:0]
	for _, m := range c.messages {
		if m.Phase != PhasePending {
			kept = append(kept, m)
		}
	}
	c.messages = kept
}
