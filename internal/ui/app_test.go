package ui

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GuardChat/internal/config"
	"GuardChat/internal/conversation"
	"GuardChat/internal/gateway"
	"GuardChat/internal/monitor"
	"GuardChat/internal/session"
)

// fakeGateway satisfies every client-facing interface the model's
// dependencies need.
type fakeGateway struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (f *fakeGateway) Chat(ctx context.Context, tenant, sessionID, message string) (*gateway.ChatResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return &gateway.ChatResponse{OK: true, Response: "ok"}, nil
}

func (f *fakeGateway) BaseURL() string { return "http://gateway.test:8000" }

func (f *fakeGateway) ListSessions(ctx context.Context) ([]gateway.SessionSummary, error) {
	return nil, nil
}

func (f *fakeGateway) History(ctx context.Context, sessionID string) ([]gateway.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeGateway) DeleteSession(ctx context.Context, sessionID string) error { return nil }

func (f *fakeGateway) Health(ctx context.Context) (*gateway.HealthResponse, error) {
	return &gateway.HealthResponse{Status: "healthy"}, nil
}

func (f *fakeGateway) Stats(ctx context.Context, tenant string) (*gateway.StatsSnapshot, error) {
	return &gateway.StatsSnapshot{}, nil
}

func (f *fakeGateway) Distribution(ctx context.Context, tenant string) (map[string]int, error) {
	return nil, nil
}

func (f *fakeGateway) Timeseries(ctx context.Context, tenant string) ([]gateway.TimeseriesPoint, error) {
	return nil, nil
}

func (f *fakeGateway) AttackTypes(ctx context.Context, tenant string) (map[string]int, error) {
	return nil, nil
}

func (f *fakeGateway) Live(ctx context.Context, tenant string) ([]gateway.LiveRow, error) {
	return nil, nil
}

func (f *fakeGateway) Tenants(ctx context.Context) ([]string, error) { return nil, nil }

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestModel(gw *fakeGateway) Model {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	conv := conversation.New(gw, logger, "default", session.NewID())
	mgr := session.NewManager(gw, logger, conv)
	poller := monitor.NewPoller(gw, logger, "default")
	cfg := &config.Config{GatewayURL: gw.BaseURL(), Tenant: "default"}
	return New(cfg, mgr, poller, logger)
}

func TestRenderMessageLatency(t *testing.T) {
	msg := conversation.Message{
		Role:  conversation.RoleAssistant,
		Text:  "fine",
		Phase: conversation.PhaseFinal,
		Verdict: &gateway.Verdict{
			Action:    "ALLOW",
			RiskLevel: "low",
			LatencyMS: 123.4,
		},
	}

	out := renderMessage(msg, "")
	assert.Contains(t, out, "123ms")
	assert.NotContains(t, out, "%!")
}

func TestRenderMessageBlockedBadge(t *testing.T) {
	msg := conversation.Message{
		Role:    conversation.RoleAssistant,
		Text:    "denied",
		Phase:   conversation.PhaseFinal,
		Verdict: &gateway.Verdict{Action: "BLOCK", RiskLevel: "high", AttackTypes: []string{"jailbreak"}},
	}

	out := renderMessage(msg, "")
	assert.Contains(t, out, "BLOCKED")
	assert.Contains(t, out, "jailbreak")
}

func TestEnterWhileSubmittingKeepsDraft(t *testing.T) {
	gw := &fakeGateway{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	m := newTestModel(gw)

	done := make(chan bool, 1)
	go func() { done <- m.mgr.Conversation().Send(context.Background(), "first") }()
	<-gw.started

	m.input.SetValue("typed during flight")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next := updated.(Model)

	// The rejected submission issues no command and the draft survives.
	assert.Nil(t, cmd)
	assert.Equal(t, "typed during flight", next.input.Value())
	assert.Equal(t, 1, gw.callCount())

	close(gw.release)
	require.True(t, <-done)
}

func TestEnterBlankInputIsNoop(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestModel(gw)

	m.input.SetValue("   ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Zero(t, gw.callCount())
}

func TestTruncatePreservesUTF8(t *testing.T) {
	out := truncate("héllo wörld, привет", 10)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 10, len([]rune(out)))

	// Short strings and degenerate widths pass through untouched.
	assert.Equal(t, "héllo", truncate("héllo", 10))
	assert.Equal(t, "héllo", truncate("héllo", 1))
}
