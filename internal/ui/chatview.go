package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"GuardChat/internal/conversation"
)

const sidebarWidth = 28

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))

	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("63")).Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Width(sidebarWidth).
			Padding(0, 1)

	activeSessionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))

	safeBadge    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("[SAFE]")
	blockedBadge = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")).Render("[BLOCKED]")

	riskLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	riskMidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	riskHighStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	faintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func (m Model) View() string {
	if m.quitting {
		return "Goodbye\n"
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	if m.tab == tabChat {
		b.WriteString(m.chatView())
	} else {
		b.WriteString(m.monitorView())
	}
	return b.String()
}

func (m Model) headerView() string {
	chat := inactiveTabStyle.Render("Chat")
	mon := inactiveTabStyle.Render("Monitor")
	if m.tab == tabChat {
		chat = activeTabStyle.Render("Chat")
	} else {
		mon = activeTabStyle.Render("Monitor")
	}
	reach := ""
	if !m.poller.Reachable() {
		reach = "  " + riskHighStyle.Render("GATEWAY UNREACHABLE")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("GuardChat"), "  ", chat, " ", mon,
		"  ", m.riskView(), reach)
}

func (m Model) riskView() string {
	pct := m.mgr.Conversation().RiskPercent()
	label := fmt.Sprintf("risk %.0f%%", pct)
	switch {
	case pct >= 70:
		return riskHighStyle.Render(label)
	case pct >= 30:
		return riskMidStyle.Render(label)
	default:
		return riskLowStyle.Render(label)
	}
}

func (m Model) chatView() string {
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.transcript.View(),
		m.input.View(),
		m.footerView(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), " ", main)
}

func (m Model) sidebarView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sessions"))
	b.WriteString("\n")
	active := m.mgr.ActiveID()
	listed := false
	for _, s := range m.catalog {
		line := fmt.Sprintf("%s (%d)", truncate(s.ID, 18), s.MessageCount)
		if s.ID == active {
			line = activeSessionStyle.Render("> " + line)
			listed = true
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
		if s.Preview != "" {
			b.WriteString(faintStyle.Render("  " + truncate(s.Preview, sidebarWidth-6)))
			b.WriteString("\n")
		}
	}
	if !listed {
		// A freshly created session is not on the gateway yet.
		b.WriteString(activeSessionStyle.Render("> " + truncate(active, 18) + " (new)"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(faintStyle.Render("^N new  ^O next\n^X delete  ^R refresh"))
	if h := m.height - 4; h > 4 {
		return sidebarStyle.Height(h).Render(b.String())
	}
	return sidebarStyle.Render(b.String())
}

func (m Model) footerView() string {
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	hints := "enter send  tab monitor  F2/F3 quick prompts  ctrl+c quit"
	if m.mgr.Conversation().Submitting() {
		return m.spin.View() + " waiting for gateway  " + faintStyle.Render(hints)
	}
	return faintStyle.Render(hints)
}

// syncTranscript re-renders the conversation into the viewport and pins
// the newest message into view.
func (m *Model) syncTranscript() {
	var b strings.Builder
	for _, msg := range m.mgr.Conversation().Transcript() {
		b.WriteString(renderMessage(msg, m.spin.View()))
		b.WriteString("\n")
	}
	m.transcript.SetContent(b.String())
	m.transcript.GotoBottom()
}

func renderMessage(msg conversation.Message, spin string) string {
	switch msg.Role {
	case conversation.RoleUser:
		return userStyle.Render("You: ") + msg.Text
	default:
		if msg.Phase == conversation.PhasePending {
			return assistantStyle.Render("Gateway: ") + spin + " thinking..."
		}
		line := assistantStyle.Render("Gateway: ") + msg.Text
		if v := msg.Verdict; v != nil {
			badge := safeBadge
			if v.Blocked() {
				badge = blockedBadge
			}
			meta := fmt.Sprintf(" %s %s", badge, v.RiskLevel)
			if len(v.AttackTypes) > 0 {
				meta += " " + faintStyle.Render(strings.Join(v.AttackTypes, ","))
			}
			if v.LatencyMS > 0 {
				meta += faintStyle.Render(fmt.Sprintf(" %.0fms", v.LatencyMS))
			}
			line += meta
		}
		return line
	}
}

func truncate(s string, n int) string {
	if n <= 1 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
