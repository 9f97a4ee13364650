package aicache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/model"
)

func TestNormalizeQuery(t *testing.T) {
	got := NormalizeQuery("Could you tell me, please, what game has the most episodes?")
	assert.NotContains(t, got, "could you")
	assert.NotContains(t, got, "please")
	assert.Equal(t, got, NormalizeQuery(got), "normalization must be idempotent")
}

func TestCacheExactHit(t *testing.T) {
	c := New()
	c.Set("what game has most episodes", "Subnautica", model.QueryGaming)

	entry, ok := c.Lookup("what game has most episodes")
	require.True(t, ok)
	assert.Equal(t, "Subnautica", entry.Response)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Hits)
}

func TestCacheFuzzyHit(t *testing.T) {
	c := New()
	c.Set("what game has the most episodes", "Subnautica", model.QueryGaming)

	_, ok := c.Lookup("what game has the most episode")
	assert.True(t, ok, "near-identical query should fuzzy match")
}

func TestCacheMiss(t *testing.T) {
	c := New()
	_, ok := c.Lookup("totally unrelated question")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Stats().Misses)
}

func TestCacheExpiry(t *testing.T) {
	c := New()
	fixed := time.Now()
	c.now = func() time.Time { return fixed }
	c.Set("hello", "hi", model.QueryGeneral)

	c.now = func() time.Time { return fixed.Add(4 * time.Hour) }
	_, ok := c.Lookup("hello")
	assert.False(t, ok, "general queries expire after 3 hours")
}

func TestGetOrComputeCallsOnce(t *testing.T) {
	c := New()
	calls := 0
	resp, hit, err := c.GetOrCompute("new prompt", model.QueryGeneral, func() (string, error) {
		calls++
		return "computed", nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "computed", resp)

	resp2, hit2, err := c.GetOrCompute("new prompt", model.QueryGeneral, func() (string, error) {
		calls++
		return "should not be called", nil
	})
	require.NoError(t, err)
	assert.True(t, hit2)
	assert.Equal(t, "computed", resp2)
	assert.Equal(t, 1, calls)
}
