package coachcache

import (
	"fmt"
	"testing"

	"github.com/kim-jongsoung/tikfind/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(s string) *domain.CoachPayload {
	return &domain.CoachPayload{Response: s}
}

func TestLookup_StaticTableHit(t *testing.T) {
	c := New(10)

	p, ok := c.Lookup("hello", "ko")
	require.True(t, ok)
	assert.Equal(t, "Hello! Welcome!", p.Response)
	assert.True(t, p.Quick)
}

func TestLookup_StaticTableNormalizesInput(t *testing.T) {
	c := New(10)

	p, ok := c.Lookup("  HELLO  ", "ko")
	require.True(t, ok)
	assert.Equal(t, "Hello! Welcome!", p.Response)
}

func TestLookup_DynamicMiss(t *testing.T) {
	c := New(10)

	_, ok := c.Lookup("how is the weather", "ko")
	assert.False(t, ok)
}

func TestStoreLookup_Roundtrip(t *testing.T) {
	c := New(10)

	c.Store("How are you", "ko", payload("잘 지내요"))

	p, ok := c.Lookup("how are  you", "KO")
	require.True(t, ok)
	assert.Equal(t, "잘 지내요", p.Response)
	assert.False(t, p.Quick)
}

func TestStore_LanguageIsPartOfTheKey(t *testing.T) {
	c := New(10)

	c.Store("how are you", "ko", payload("ko answer"))

	_, ok := c.Lookup("how are you", "ja")
	assert.False(t, ok)
}

func TestStore_EvictsEarliestInserted(t *testing.T) {
	const capacity = 5
	c := New(capacity)

	for i := 0; i < capacity+1; i++ {
		c.Store(fmt.Sprintf("message %d", i), "ko", payload(fmt.Sprintf("answer %d", i)))
	}

	assert.Equal(t, capacity, c.Len())

	_, ok := c.Lookup("message 0", "ko")
	assert.False(t, ok, "first-inserted entry must be evicted")

	p, ok := c.Lookup("message 5", "ko")
	require.True(t, ok)
	assert.Equal(t, "answer 5", p.Response)
}

func TestStore_NeverExceedsCapacity(t *testing.T) {
	const capacity = 3
	c := New(capacity)

	for i := 0; i < 50; i++ {
		c.Store(fmt.Sprintf("message %d", i), "ko", payload("x"))
		assert.LessOrEqual(t, c.Len(), capacity)
	}
}

func TestStore_OverwriteDoesNotGrow(t *testing.T) {
	c := New(3)

	c.Store("message", "ko", payload("old"))
	c.Store("message", "ko", payload("new"))

	assert.Equal(t, 1, c.Len())
	p, ok := c.Lookup("message", "ko")
	require.True(t, ok)
	assert.Equal(t, "new", p.Response)
}

func TestStore_NilPayloadIgnored(t *testing.T) {
	c := New(3)
	c.Store("message", "ko", nil)
	assert.Equal(t, 0, c.Len())
}
