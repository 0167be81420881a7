// Package gateway implements the HTTP client for the prompt-guard gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Every call shares this upper bound; exceeding it is reported like any
// other transport failure.
const requestTimeout = 30 * time.Second

// Client talks to one prompt-guard gateway instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer

	requestDuration metric.Float64Histogram
	chatTurns       metric.Int64Counter
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger, tracer trace.Tracer, meter metric.Meter) (*Client, error) {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
		tracer:     tracer,
	}

	var err error
	c.requestDuration, err = meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	c.chatTurns, err = meter.Int64Counter(
		"guardchat.chat.turns",
		metric.WithDescription("Chat turns submitted to the gateway"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create turn counter: %w", err)
	}

	return c, nil
}

// BaseURL returns the configured gateway address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat submits one turn for the given session, scoped by tenant.
func (c *Client) Chat(ctx context.Context, tenant, sessionID, message string) (*ChatResponse, error) {
	ctx, span := c.tracer.Start(ctx, "gateway_chat")
	defer span.End()

	reqBody := ChatRequest{Message: message, SessionID: sessionID}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	if tenant != "" && tenant != TenantAll {
		req.Header.Set("X-Tenant-ID", tenant)
	}

	var apiResp ChatResponse
	if err := c.do(ctx, req, &apiResp); err != nil {
		return nil, err
	}

	c.chatTurns.Add(ctx, 1)
	return &apiResp, nil
}

// ListSessions fetches the session catalog.
func (c *Client) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	ctx, span := c.tracer.Start(ctx, "gateway_list_sessions")
	defer span.End()

	var resp sessionsResponse
	if err := c.getJSON(ctx, "/chat/sessions", "", &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// History fetches the full transcript of one session.
func (c *Client) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	ctx, span := c.tracer.Start(ctx, "gateway_history")
	defer span.End()

	var resp historyResponse
	if err := c.getJSON(ctx, "/chat/history/"+url.PathEscape(sessionID), "", &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

// DeleteSession requests deletion of one session's history.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	ctx, span := c.tracer.Start(ctx, "gateway_delete_session")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, "DELETE", c.baseURL+"/chat/history/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	var resp deleteResponse
	return c.do(ctx, req, &resp)
}

// Health reads the gateway health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	ctx, span := c.tracer.Start(ctx, "gateway_health")
	defer span.End()

	var resp HealthResponse
	if err := c.getJSON(ctx, "/health", "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats reads the aggregate counters, scoped by tenant.
func (c *Client) Stats(ctx context.Context, tenant string) (*StatsSnapshot, error) {
	ctx, span := c.tracer.Start(ctx, "gateway_stats")
	defer span.End()

	var resp StatsSnapshot
	if err := c.getJSON(ctx, "/stats", tenantQuery(tenant), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Distribution reads the classification label counts, scoped by tenant.
func (c *Client) Distribution(ctx context.Context, tenant string) (map[string]int, error) {
	ctx, span := c.tracer.Start(ctx, "gateway_distribution")
	defer span.End()

	resp := map[string]int{}
	if err := c.getJSON(ctx, "/stats/distribution", tenantQuery(tenant), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Timeseries reads requests-per-hour buckets, scoped by tenant.
func (c *Client) Timeseries(ctx context.Context, tenant string) ([]TimeseriesPoint, error) {
	ctx, span := c.tracer.Start(ctx, "gateway_timeseries")
	defer span.End()

	var resp timeseriesResponse
	if err := c.getJSON(ctx, "/stats/timeseries", tenantQuery(tenant), &resp); err != nil {
		return nil, err
	}
	return resp.Points, nil
}

// AttackTypes reads the attack type breakdown, scoped by tenant.
func (c *Client) AttackTypes(ctx context.Context, tenant string) (map[string]int, error) {
	ctx, span := c.tracer.Start(ctx, "gateway_attack_types")
	defer span.End()

	resp := map[string]int{}
	if err := c.getJSON(ctx, "/stats/attack-types", tenantQuery(tenant), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Live reads the most recent request-log rows, scoped by tenant.
func (c *Client) Live(ctx context.Context, tenant string) ([]LiveRow, error) {
	ctx, span := c.tracer.Start(ctx, "gateway_live")
	defer span.End()

	var resp liveResponse
	if err := c.getJSON(ctx, "/stats/live", tenantQuery(tenant), &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

// Tenants lists the tenants the gateway has observed.
func (c *Client) Tenants(ctx context.Context) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "gateway_tenants")
	defer span.End()

	var resp tenantsResponse
	if err := c.getJSON(ctx, "/tenants", "", &resp); err != nil {
		return nil, err
	}
	return resp.Tenants, nil
}

func tenantQuery(tenant string) string {
	if tenant == "" || tenant == TenantAll {
		return ""
	}
	return "tenant_id=" + url.QueryEscape(tenant)
}

func (c *Client) getJSON(ctx context.Context, path, query string, out any) error {
	u := c.baseURL + path
	if query != "" {
		u += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(ctx, req, out)
}

func (c *Client) do(ctx context.Context, req *http.Request, out any) error {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.requestDuration.Record(ctx, float64(time.Since(start).Milliseconds()))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.logger.Debug("gateway request", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode)
	return nil
}
