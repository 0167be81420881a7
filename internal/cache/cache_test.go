package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotEmpty(t *testing.T) {
	var s Snapshot[int]
	v, ok := s.Get()
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.True(t, s.At().IsZero())
}

func TestSnapshotSetGet(t *testing.T) {
	var s Snapshot[[]string]
	s.Set([]string{"a", "b"})

	v, ok := s.Get()
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)
	assert.False(t, s.At().IsZero())

	// A newer value replaces the old one outright.
	s.Set([]string{"c"})
	v, _ = s.Get()
	assert.Equal(t, []string{"c"}, v)
}

func TestSnapshotClear(t *testing.T) {
	var s Snapshot[string]
	s.Set("value")
	s.Clear()

	v, ok := s.Get()
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.True(t, s.At().IsZero())
}
