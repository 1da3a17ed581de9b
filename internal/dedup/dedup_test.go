// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperbot/internal/match"
	"github.com/pdiddy/paperbot/pkg/types"
)

// --- fake seen set ---

type fakeSeen struct {
	ids map[string]Entry
	err error
}

func newFakeSeen() *fakeSeen { return &fakeSeen{ids: map[string]Entry{}} }

func (f *fakeSeen) Contains(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.ids[id]
	return ok, nil
}

func (f *fakeSeen) Add(_ context.Context, e Entry) error {
	f.ids[e.ID] = e
	return nil
}

func (f *fakeSeen) Close() error { return nil }

func result(r types.PaperRecord) match.Result {
	return match.Result{Record: r, Keywords: []types.Keyword{{Text: "sar", Mode: types.ModeFixed}}}
}

// --- ID ---

func TestIDPrefersURL(t *testing.T) {
	r := types.PaperRecord{Title: "Paper", URL: "  https://example.org/p1 ", Source: types.SourceArxiv}
	assert.Equal(t, "https://example.org/p1", ID(r))
	assert.False(t, IsContentHash(ID(r)))
}

func TestIDFallsBackToContentHash(t *testing.T) {
	a := types.PaperRecord{Title: "Same Title", Source: types.SourceMDPI}
	b := types.PaperRecord{Title: "Same Title", Source: types.SourceOpenAlex}
	c := types.PaperRecord{Title: " Same Title ", Source: types.SourceMDPI}

	assert.True(t, IsContentHash(ID(a)))
	assert.True(t, strings.HasPrefix(ID(a), "sha256:"))
	assert.NotEqual(t, ID(a), ID(b), "same title from different sources must stay distinct")
	assert.Equal(t, ID(a), ID(c), "hash should ignore surrounding whitespace")
}

func TestTitleDuplicatesWithDifferentURLsAreDistinct(t *testing.T) {
	a := types.PaperRecord{Title: "T", URL: "https://arxiv.org/abs/1", Source: types.SourceArxiv}
	b := types.PaperRecord{Title: "T", URL: "https://doi.org/10.1/x", Source: types.SourceOpenAlex}
	assert.NotEqual(t, ID(a), ID(b))
}

// --- IsNew / FilterNew ---

func TestSeenURLIsExcluded(t *testing.T) {
	ctx := context.Background()
	seen := newFakeSeen()
	rec := types.PaperRecord{Title: "P1", URL: "https://example.org/p1", Source: types.SourceArxiv}

	isNew, err := IsNew(ctx, seen, rec)
	require.NoError(t, err)
	assert.True(t, isNew)

	require.NoError(t, seen.Add(ctx, NewEntry(rec, time.Now())))

	refetched := rec
	isNew, err = IsNew(ctx, seen, refetched)
	require.NoError(t, err)
	assert.False(t, isNew)
}

func TestFilterNew(t *testing.T) {
	ctx := context.Background()
	seen := newFakeSeen()
	old := types.PaperRecord{Title: "Old", URL: "https://example.org/old"}
	require.NoError(t, seen.Add(ctx, NewEntry(old, time.Now())))

	fresh := types.PaperRecord{Title: "Fresh", URL: "https://example.org/fresh"}
	out, err := FilterNew(ctx, seen, []match.Result{result(old), result(fresh)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Fresh", out[0].Record.Title)
}

func TestFilterNewPropagatesStoreErrors(t *testing.T) {
	seen := newFakeSeen()
	seen.err = errors.New("database is locked")

	_, err := FilterNew(context.Background(), seen, []match.Result{result(types.PaperRecord{URL: "u"})})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

// --- Collapse ---

func TestCollapse(t *testing.T) {
	a := types.PaperRecord{Title: "A", URL: "https://example.org/a", Genre: "cs.CV"}
	dup := types.PaperRecord{Title: "A", URL: "https://example.org/a", Genre: "eess.IV"}
	b := types.PaperRecord{Title: "B", URL: "https://example.org/b"}

	out, removed := Collapse([]match.Result{result(a), result(dup), result(b)})
	assert.Equal(t, 1, removed)
	require.Len(t, out, 2)
	assert.Equal(t, "cs.CV", out[0].Record.Genre, "first occurrence wins")
}

func TestNewEntry(t *testing.T) {
	at := time.Date(2026, 10, 1, 9, 0, 0, 0, time.FixedZone("JST", 9*3600))
	rec := types.PaperRecord{Title: "P", URL: "https://example.org/p", Source: types.SourceMDPI}

	e := NewEntry(rec, at)
	assert.Equal(t, "https://example.org/p", e.ID)
	assert.Equal(t, types.SourceMDPI, e.Source)
	assert.Equal(t, time.UTC, e.PostedAt.Location())
}

func TestDelivered(t *testing.T) {
	seen := newFakeSeen()
	rec := types.PaperRecord{Title: "P", URL: "https://example.org/p", Source: types.SourceArxiv}
	at := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	e := NewDeliveryEntry(rec, "slack:lab/C1", at)
	assert.Equal(t, "https://example.org/p|slack:lab/C1", e.ID)
	assert.Equal(t, "https://example.org/p", e.URL)
	require.NoError(t, seen.Add(context.Background(), e))

	done, err := Delivered(context.Background(), seen, rec, []string{"slack:lab/C1", "telegram:-100"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"slack:lab/C1": true}, done)

	isNew, err := IsNew(context.Background(), seen, rec)
	require.NoError(t, err)
	assert.True(t, isNew, "a partial delivery does not mark the paper seen")

	seen.err = errors.New("disk full")
	_, err = Delivered(context.Background(), seen, rec, []string{"slack:lab/C1"})
	assert.ErrorContains(t, err, "disk full")
}
