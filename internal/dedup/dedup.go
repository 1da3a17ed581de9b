// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup derives stable paper identifiers and filters out records
// already present in the SeenSet.
//
// A record is new iff its identifier is absent from the SeenSet. Callers add
// the identifier only after every notification target accepted the record,
// so a failed post is retried on the next run. When only some destinations
// accepted it, each of those is recorded under a delivery identifier and
// skipped on the retry.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/paperbot/internal/match"
	"github.com/pdiddy/paperbot/pkg/types"
)

// hashPrefix marks identifiers derived from content rather than a URL.
const hashPrefix = "sha256:"

// Entry is what a SeenSet records for a posted paper.
type Entry struct {
	ID       string       `json:"id" yaml:"id"`
	URL      string       `json:"url,omitempty" yaml:"url,omitempty"`
	Title    string       `json:"title" yaml:"title"`
	Source   types.Source `json:"source" yaml:"source"`
	PostedAt time.Time    `json:"posted_at" yaml:"posted_at"`
}

// SeenSet is the persisted set of already-notified identifiers.
type SeenSet interface {
	Contains(ctx context.Context, id string) (bool, error)
	Add(ctx context.Context, entry Entry) error
	Close() error
}

// ID returns the identifier of a record: its trimmed URL, or a SHA-256
// content hash of source and title when the URL is empty. Records with the
// same title from different sources hash differently.
func ID(r types.PaperRecord) string {
	if u := strings.TrimSpace(r.URL); u != "" {
		return u
	}
	sum := sha256.Sum256([]byte(string(r.Source) + "\x00" + strings.TrimSpace(r.Title)))
	return hashPrefix + hex.EncodeToString(sum[:])
}

// IsContentHash reports whether id was derived from content.
func IsContentHash(id string) bool {
	return strings.HasPrefix(id, hashPrefix)
}

// NewEntry builds the SeenSet entry for a record posted at t.
func NewEntry(r types.PaperRecord, t time.Time) Entry {
	return Entry{
		ID:       ID(r),
		URL:      r.URL,
		Title:    r.Title,
		Source:   r.Source,
		PostedAt: t.UTC(),
	}
}

// DeliveryID is the identifier recording that the paper id reached dest.
func DeliveryID(id, dest string) string {
	return id + "|" + dest
}

// NewDeliveryEntry builds the entry recording that r reached dest at t.
func NewDeliveryEntry(r types.PaperRecord, dest string, t time.Time) Entry {
	e := NewEntry(r, t)
	e.ID = DeliveryID(e.ID, dest)
	return e
}

// Delivered returns the destinations in dests that already received r.
func Delivered(ctx context.Context, seen SeenSet, r types.PaperRecord, dests []string) (map[string]bool, error) {
	id := ID(r)
	done := make(map[string]bool)
	for _, dest := range dests {
		found, err := seen.Contains(ctx, DeliveryID(id, dest))
		if err != nil {
			return nil, fmt.Errorf("checking deliveries of %s: %w", id, err)
		}
		if found {
			done[dest] = true
		}
	}
	return done, nil
}

// IsNew reports whether the record is absent from seen.
func IsNew(ctx context.Context, seen SeenSet, r types.PaperRecord) (bool, error) {
	found, err := seen.Contains(ctx, ID(r))
	if err != nil {
		return false, fmt.Errorf("checking seen set for %s: %w", ID(r), err)
	}
	return !found, nil
}

// Collapse keeps the first result for each identifier and reports how many
// in-run duplicates were dropped.
func Collapse(results []match.Result) ([]match.Result, int) {
	seen := make(map[string]bool, len(results))
	out := make([]match.Result, 0, len(results))
	removed := 0
	for _, r := range results {
		id := ID(r.Record)
		if seen[id] {
			removed++
			continue
		}
		seen[id] = true
		out = append(out, r)
	}
	return out, removed
}

// FilterNew returns the results whose records are not yet in seen. Any
// SeenSet error aborts the filter: without it the no-repost invariant
// cannot be upheld.
func FilterNew(ctx context.Context, seen SeenSet, results []match.Result) ([]match.Result, error) {
	var fresh []match.Result
	for _, r := range results {
		isNew, err := IsNew(ctx, seen, r.Record)
		if err != nil {
			return nil, err
		}
		if isNew {
			fresh = append(fresh, r)
		}
	}
	return fresh, nil
}
