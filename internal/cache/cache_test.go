package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetGet(t *testing.T) {
	m := NewMemory()
	m.Set("symbol:VNM", "Vinamilk", 0)

	v, ok := m.Get("symbol:VNM")
	require.True(t, ok)
	assert.Equal(t, "Vinamilk", v)

	_, ok = m.Get("symbol:HPG")
	assert.False(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	m.Set("k", 1, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := m.Get("k")
	assert.False(t, ok)
}

func TestMemoryClear(t *testing.T) {
	m := NewMemory()
	m.Set("k", 1, 0)
	m.Clear()
	_, ok := m.Get("k")
	assert.False(t, ok)
}
