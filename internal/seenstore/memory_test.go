// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seenstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	ok, err := m.Contains(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Add(ctx, entryAt("a", base)))
	require.NoError(t, m.Add(ctx, entryAt("b", base.Add(time.Hour))))
	require.NoError(t, m.Add(ctx, entryAt("a", base.Add(5*time.Hour))))

	ok, err = m.Contains(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := m.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.True(t, base.Equal(list[1].PostedAt))

	n, err := m.Prune(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	removed, err := m.Remove(ctx, "b")
	require.NoError(t, err)
	assert.True(t, removed)

	count, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, m.Close())
}
