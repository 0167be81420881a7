package monitor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GuardChat/internal/gateway"
)

func row(id int) gateway.LiveRow {
	return gateway.LiveRow{SessionID: fmt.Sprintf("s%d", id)}
}

func ids(rows []gateway.LiveRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.SessionID)
	}
	return out
}

func TestPushOverwritesOldestWhenFull(t *testing.T) {
	r := NewRing(3)
	for i := 1; i <= 5; i++ {
		r.Push(row(i))
	}
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"s3", "s4", "s5"}, ids(r.Window(3)))
}

func TestWindowEmptyRingYieldsNil(t *testing.T) {
	r := NewRing(3)
	assert.Nil(t, r.Window(3))
	r.Advance() // must not panic on empty
	assert.Nil(t, r.Window(1))
}

func TestWindowShorterThanRequest(t *testing.T) {
	r := NewRing(5)
	r.Push(row(1))
	r.Push(row(2))
	assert.Equal(t, []string{"s1", "s2"}, ids(r.Window(4)))
}

func TestAdvanceRotatesWindow(t *testing.T) {
	r := NewRing(4)
	for i := 1; i <= 4; i++ {
		r.Push(row(i))
	}
	assert.Equal(t, []string{"s1", "s2"}, ids(r.Window(2)))
	r.Advance()
	assert.Equal(t, []string{"s2", "s3"}, ids(r.Window(2)))
	r.Advance()
	r.Advance()
	assert.Equal(t, []string{"s4", "s1"}, ids(r.Window(2)))
	r.Advance()
	assert.Equal(t, []string{"s1", "s2"}, ids(r.Window(2)))
}

func TestReplaceStoresNewestFirstPayloadChronologically(t *testing.T) {
	r := NewRing(3)
	r.Push(row(99))
	r.Advance()

	// Payload arrives newest first, as the live endpoint emits it.
	r.Replace([]gateway.LiveRow{row(3), row(2), row(1)})
	assert.Equal(t, []string{"s1", "s2", "s3"}, ids(r.Window(3)))
}

func TestReplaceDropsRowsBeyondCapacity(t *testing.T) {
	r := NewRing(2)
	r.Replace([]gateway.LiveRow{row(5), row(4), row(3), row(2), row(1)})
	require.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"s4", "s5"}, ids(r.Window(2)))
}

func TestReplaceEmptyClears(t *testing.T) {
	r := NewRing(3)
	r.Push(row(1))
	r.Replace(nil)
	assert.Zero(t, r.Len())
	assert.Nil(t, r.Window(3))
}

func TestZeroCapacityFallsBackToDefault(t *testing.T) {
	r := NewRing(0)
	assert.Equal(t, 20, r.Capacity())
}
