package cache

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	apperrors "goethos/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory(clock.Now)

	require.NoError(t, m.Set(ctx, "session-1", []byte("profile"), time.Minute))

	v, ok, err := m.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("profile"), v)

	clock.Advance(59 * time.Second)
	_, ok, _ = m.Get(ctx, "session-1")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok, _ = m.Get(ctx, "session-1")
	assert.False(t, ok, "entry should expire exactly at ttl")
	assert.Equal(t, 0, m.Len())
}

func TestMemory_EvictAndPurge(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(0, 0)}
	m := NewMemory(clock.Now)

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, m.Evict(ctx, "missing"))
	require.NoError(t, m.Evict(ctx, "b"))
	_, ok, _ := m.Get(ctx, "b")
	assert.False(t, ok)

	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, m.Purge())
	assert.Equal(t, 0, m.Len())
}

func TestMemory_RejectsNonPositiveTTL(t *testing.T) {
	err := NewMemory(nil).Set(context.Background(), "k", nil, 0)
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput))
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'z'
	v, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

type profile struct {
	Mean  float64 `json:"mean"`
	Label string  `json:"label"`
}

func TestTyped_RoundTripAndCorruption(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	c := NewTyped[profile](m, "profile:", time.Minute)

	require.NoError(t, c.Set(ctx, "s1", profile{Mean: 0.75, Label: "high"}))
	got, ok, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, profile{Mean: 0.75, Label: "high"}, got)

	raw, ok, _ := m.Get(ctx, "profile:s1")
	assert.True(t, ok)
	assert.Contains(t, string(raw), `"label":"high"`)

	require.NoError(t, m.Set(ctx, "profile:bad", []byte("{"), time.Minute))
	_, ok, err = c.Get(ctx, "bad")
	assert.Error(t, err)
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "profile:bad")
	assert.False(t, ok, "corrupt entries are evicted")

	require.NoError(t, c.Evict(ctx, "s1"))
	_, ok, _ = c.Get(ctx, "s1")
	assert.False(t, ok)
}
