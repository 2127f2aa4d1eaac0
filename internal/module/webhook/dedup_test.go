package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEventStoreMarkProcessed(t *testing.T) {
	s := NewMemoryEventStore(time.Hour)
	ctx := context.Background()

	fresh, err := s.MarkProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = s.MarkProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, fresh)

	fresh, err = s.MarkProcessed(ctx, "evt_2")
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestMemoryEventStoreForget(t *testing.T) {
	s := NewMemoryEventStore(time.Hour)
	ctx := context.Background()

	_, err := s.MarkProcessed(ctx, "evt_1")
	require.NoError(t, err)
	require.NoError(t, s.Forget(ctx, "evt_1"))

	fresh, err := s.MarkProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestMemoryEventStoreExpiry(t *testing.T) {
	s := NewMemoryEventStore(10 * time.Millisecond)
	ctx := context.Background()

	_, err := s.MarkProcessed(ctx, "evt_1")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	// Expired entries are forgotten, so the id counts as fresh again.
	fresh, err := s.MarkProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, fresh)
}
