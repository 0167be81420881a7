package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"GuardChat/internal/monitor"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

const tickerRows = 3

func (m Model) monitorView() string {
	snap := m.poller.Snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  %s\n\n",
		titleStyle.Render("Tenant:"), snap.Tenant,
		faintStyle.Render(m.cfg.GatewayURL))

	b.WriteString(m.healthLine(snap))
	b.WriteString("\n")
	b.WriteString(m.statsLines(snap))
	b.WriteString("\n")
	b.WriteString(m.distributionLines(snap))
	b.WriteString(m.timeseriesLine(snap))
	b.WriteString(m.attackTypeLines(snap))
	b.WriteString("\n")
	b.WriteString(m.liveTicker(snap))
	b.WriteString("\n")
	b.WriteString(faintStyle.Render("t cycle tenant  tab chat  q quit"))
	return b.String()
}

func (m Model) healthLine(snap monitor.Snapshot) string {
	state := snap.Feeds[monitor.FeedHealth]
	if snap.Health == nil {
		return faintStyle.Render("health: "+string(state.Status)) + feedErr(state) + "\n"
	}
	db := "db down"
	if snap.Health.DBConnected {
		db = "db ok"
	}
	line := fmt.Sprintf("health: %s  backend %s  %s  up %ds",
		snap.Health.Status, snap.Health.SecurityBackend, db, snap.Health.UptimeSeconds)
	return line + staleNote(state) + "\n"
}

func (m Model) statsLines(snap monitor.Snapshot) string {
	state := snap.Feeds[monitor.FeedStats]
	if snap.Stats == nil {
		return faintStyle.Render("stats: "+string(state.Status)) + feedErr(state) + "\n"
	}
	s := snap.Stats
	line := fmt.Sprintf("requests %d  blocked %d  warned %d  whitelist %d  hard-block %d  model %d",
		s.TotalRequests, s.Blocked, s.Warned, s.WhitelistHits, s.HardBlockHits, s.ModelClassified)
	return line + staleNote(state) + "\n"
}

func (m Model) distributionLines(snap monitor.Snapshot) string {
	if len(snap.Distribution) == 0 {
		return ""
	}
	labels := make([]string, 0, len(snap.Distribution))
	total := 0
	for label, n := range snap.Distribution {
		labels = append(labels, label)
		total += n
	}
	sort.Strings(labels)
	var b strings.Builder
	for _, label := range labels {
		n := snap.Distribution[label]
		width := 0
		if total > 0 {
			width = n * 24 / total
		}
		fmt.Fprintf(&b, "%-14s %s %d\n", label, strings.Repeat("█", width), n)
	}
	return b.String()
}

func (m Model) timeseriesLine(snap monitor.Snapshot) string {
	points := snap.Timeseries
	if len(points) == 0 {
		return ""
	}
	peak := 0
	for _, p := range points {
		if p.Count > peak {
			peak = p.Count
		}
	}
	var b strings.Builder
	b.WriteString("last 24h: ")
	for _, p := range points {
		idx := 0
		if peak > 0 {
			idx = p.Count * (len(sparkRunes) - 1) / peak
		}
		b.WriteRune(sparkRunes[idx])
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) attackTypeLines(snap monitor.Snapshot) string {
	if len(snap.AttackTypes) == 0 {
		return ""
	}
	names := make([]string, 0, len(snap.AttackTypes))
	for name := range snap.AttackTypes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if snap.AttackTypes[names[i]] != snap.AttackTypes[names[j]] {
			return snap.AttackTypes[names[i]] > snap.AttackTypes[names[j]]
		}
		return names[i] < names[j]
	})
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%d", name, snap.AttackTypes[name]))
	}
	return "attacks: " + strings.Join(parts, "  ") + "\n"
}

// liveTicker shows a rotating window over the recent-events ring. The
// rotation offset advances on the UI tick, not on data arrival.
func (m Model) liveTicker(snap monitor.Snapshot) string {
	state := snap.Feeds[monitor.FeedLive]
	ring := m.poller.Ring()
	rows := ring.Window(tickerRows)
	if len(rows) == 0 {
		return faintStyle.Render("live: "+string(state.Status)) + feedErr(state) + "\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Live"))
	b.WriteString(staleNote(state))
	b.WriteString("\n")
	for _, row := range rows {
		badge := safeBadge
		if row.EnforcementAction == "BLOCK" {
			badge = blockedBadge
		}
		fmt.Fprintf(&b, "%s %-10s %-8s %s %s\n",
			badge, truncate(row.TenantID, 10), row.RiskLevel,
			truncate(attackSummary(row.AttackTypes), 24), faintStyle.Render(row.TS))
	}
	return b.String()
}

// attackSummary renders the attack_types column, which the gateway may
// emit as a JSON array or as a pre-encoded string.
func attackSummary(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "-"
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return "-"
		}
		return strings.Join(list, ",")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	return string(raw)
}

func feedErr(state monitor.FeedState) string {
	if state.Status != monitor.StatusError || state.Err == nil {
		return ""
	}
	return " " + riskHighStyle.Render(truncate(state.Err.Error(), 60))
}

// staleNote flags a pane that is showing retained data while its feed
// is failing.
func staleNote(state monitor.FeedState) string {
	if state.Status != monitor.StatusError {
		return ""
	}
	age := time.Since(state.LastSuccess).Round(time.Second)
	return "  " + statusStyle.Render(fmt.Sprintf("stale %s", age))
}
