package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"GuardChat/internal/gateway"
)

func score(v float64) *float64 {
	return &v
}

func TestApplyReplacesScore(t *testing.T) {
	var tr Tracker

	tr.Apply(&gateway.Verdict{RiskScore: score(0.2)})
	assert.InDelta(t, 20.0, tr.Percent(), 0.001)

	// A lower subsequent score replaces the indicator, it never sums.
	tr.Apply(&gateway.Verdict{RiskScore: score(0.05)})
	assert.InDelta(t, 5.0, tr.Percent(), 0.001)
}

func TestApplyAbsentScoreLeavesIndicator(t *testing.T) {
	var tr Tracker

	tr.Apply(&gateway.Verdict{RiskScore: score(0.4)})
	tr.Apply(&gateway.Verdict{Action: "WARN"})
	tr.Apply(nil)
	assert.InDelta(t, 40.0, tr.Percent(), 0.001)
}

func TestApplyZeroScoreResets(t *testing.T) {
	var tr Tracker

	tr.Apply(&gateway.Verdict{RiskScore: score(0.9)})
	tr.Apply(&gateway.Verdict{RiskScore: score(0)})
	assert.Zero(t, tr.Percent())
}

func TestApplyClampsRange(t *testing.T) {
	var tr Tracker

	tr.Apply(&gateway.Verdict{RiskScore: score(3.5)})
	assert.InDelta(t, 100.0, tr.Percent(), 0.001)

	tr.Apply(&gateway.Verdict{RiskScore: score(-1)})
	assert.Zero(t, tr.Percent())
}

func TestReset(t *testing.T) {
	var tr Tracker

	tr.Apply(&gateway.Verdict{RiskScore: score(0.7)})
	tr.Reset()
	assert.Zero(t, tr.Percent())
}

func TestRecomputeLastScoreWins(t *testing.T) {
	var tr Tracker

	tr.Apply(&gateway.Verdict{RiskScore: score(0.9)})
	tr.Recompute([]*gateway.Verdict{
		{RiskScore: score(0.8)},
		{RiskScore: score(0.3)},
		{Action: "ALLOW"}, // no score, skipped
	})
	assert.InDelta(t, 30.0, tr.Percent(), 0.001)
}

func TestRecomputeEmptyResets(t *testing.T) {
	var tr Tracker

	tr.Apply(&gateway.Verdict{RiskScore: score(0.5)})
	tr.Recompute(nil)
	assert.Zero(t, tr.Percent())
}
