package gateway

import (
	"encoding/json"
	"time"
)

// TenantAll is the unscoped tenant filter: queries carrying it are issued
// without a tenant_id parameter.
const TenantAll = "all"

// ChatRequest is the body for POST /chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the subset of the gateway's chat response this client
// consumes. The gateway returns more fields; unknown ones are ignored.
type ChatResponse struct {
	OK                  bool     `json:"ok"`
	Response            string   `json:"response"`
	IsSafe              *bool    `json:"is_safe,omitempty"`
	RiskLevel           string   `json:"risk_level,omitempty"`
	AttackTypes         []string `json:"attack_types,omitempty"`
	Explanation         string   `json:"explanation,omitempty"`
	Action              string   `json:"action,omitempty"`
	InferenceMS         float64  `json:"inference_ms,omitempty"`
	Scope               string   `json:"scope,omitempty"`
	CumulativeRiskScore *float64 `json:"cumulative_risk_score,omitempty"`
}

// Verdict is the security classification attached to one resolved
// assistant turn. Immutable once attached to a message.
type Verdict struct {
	Scope       string   `json:"scope,omitempty"`
	Action      string   `json:"action,omitempty"`
	RiskLevel   string   `json:"risk_level,omitempty"`
	AttackTypes []string `json:"attack_types,omitempty"`
	RiskScore   *float64 `json:"risk_score,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	LatencyMS   float64  `json:"latency_ms,omitempty"`
}

// Verdict extracts the classification fields from a chat response.
func (r *ChatResponse) Verdict() *Verdict {
	return &Verdict{
		Scope:       r.Scope,
		Action:      r.Action,
		RiskLevel:   r.RiskLevel,
		AttackTypes: r.AttackTypes,
		RiskScore:   r.CumulativeRiskScore,
		Explanation: r.Explanation,
		LatencyMS:   r.InferenceMS,
	}
}

// Blocked reports whether the gateway enforced a block on this turn.
func (v *Verdict) Blocked() bool {
	return v.Action == "BLOCK"
}

// SessionSummary is one entry of GET /chat/sessions.
type SessionSummary struct {
	SessionID    string `json:"session_id"`
	MessageCount int    `json:"message_count"`
	LastMessage  string `json:"last_message"`
	Timestamp    string `json:"timestamp"`
}

type sessionsResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

// HistoryEntry is one message of GET /chat/history/{id}.
type HistoryEntry struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	TS        string `json:"ts"`
	RiskLevel string `json:"risk_level,omitempty"`
	Action    string `json:"action,omitempty"`
}

type historyResponse struct {
	SessionID string         `json:"session_id"`
	History   []HistoryEntry `json:"history"`
}

type deleteResponse struct {
	Deleted   bool   `json:"deleted"`
	SessionID string `json:"session_id"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status          string `json:"status"`
	SecurityBackend string `json:"security_backend,omitempty"`
	DBConnected     bool   `json:"db_connected,omitempty"`
	UptimeSeconds   int64  `json:"uptime_seconds,omitempty"`
}

// StatsSnapshot is the aggregate counters of GET /stats.
type StatsSnapshot struct {
	TotalRequests   int `json:"total_requests"`
	Blocked         int `json:"blocked"`
	Warned          int `json:"warned"`
	WhitelistHits   int `json:"whitelist_hits"`
	HardBlockHits   int `json:"hard_block_hits"`
	ModelClassified int `json:"model_classified"`
}

// TimeseriesPoint is one bucket of GET /stats/timeseries.
type TimeseriesPoint struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

type timeseriesResponse struct {
	Points []TimeseriesPoint `json:"points"`
}

// LiveRow is one request-log row of GET /stats/live, newest first.
// The gateway serializes attack_types as either a JSON array or a
// JSON-encoded string depending on its storage path, so it is kept raw.
type LiveRow struct {
	TS                  string          `json:"ts"`
	TenantID            string          `json:"tenant_id"`
	Label               string          `json:"label"`
	RiskLevel           string          `json:"risk_level"`
	AttackTypes         json.RawMessage `json:"attack_types,omitempty"`
	EnforcementAction   string          `json:"enforcement_action"`
	SessionID           string          `json:"session_id,omitempty"`
	CumulativeRiskScore *float64        `json:"cumulative_risk_score,omitempty"`
}

type liveResponse struct {
	Rows []LiveRow `json:"rows"`
}

type tenantsResponse struct {
	Tenants []string `json:"tenants"`
}

// ParseTS decodes the timestamp strings the gateway emits. SQLite-backed
// rows carry bare ISO timestamps without a zone; zero time on anything
// unrecognized.
func ParseTS(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}
