// Package risk tracks a session's current risk indicator.
package risk

import "GuardChat/internal/gateway"

// Tracker holds the risk percentage shown for one session. Each verdict
// carrying a numeric risk score replaces the value outright; scores are
// never summed. A verdict without a score leaves the value unchanged,
// while a score of exactly 0 resets the display to 0%.
type Tracker struct {
	percent float64
}

// Percent returns the current risk in [0,100].
func (t *Tracker) Percent() float64 {
	return t.percent
}

// Apply folds one resolved verdict into the tracker.
func (t *Tracker) Apply(v *gateway.Verdict) {
	if v == nil || v.RiskScore == nil {
		return
	}
	t.percent = clamp(*v.RiskScore * 100)
}

// Reset returns the tracker to 0, as on session creation or switch.
func (t *Tracker) Reset() {
	t.percent = 0
}

// Recompute derives the value from a session's full verdict sequence,
// oldest first: the last verdict with a numeric score wins.
func (t *Tracker) Recompute(verdicts []*gateway.Verdict) {
	t.Reset()
	for i := len(verdicts) - 1; i >= 0; i-- {
		v := verdicts[i]
		if v != nil && v.RiskScore != nil {
			t.percent = clamp(*v.RiskScore * 100)
			return
		}
	}
}

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
