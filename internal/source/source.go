// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source fetches candidate papers from arXiv, MDPI and OpenAlex.
//
// Each backend implements Fetcher. FetchAll visits the configured sources
// and their genres in order, one request at a time, and skips any that
// fail so one broken feed never blocks the rest of a run.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/pdiddy/paperbot/internal/httputil"
	"github.com/pdiddy/paperbot/pkg/types"
)

// Fetcher retrieves the current papers of one genre from a single source.
type Fetcher interface {
	Name() types.Source
	Fetch(ctx context.Context, req FetchRequest) ([]types.PaperRecord, error)
}

// FetchRequest selects what a Fetcher returns.
type FetchRequest struct {
	// Genre is the source-specific feed selector.
	Genre string

	// Keywords are passed to backends that can narrow results server-side.
	Keywords []types.Keyword
}

// Target pairs a fetcher with the genres configured for it.
type Target struct {
	Fetcher Fetcher
	Genres  []string
}

// FetchError records a source/genre that failed during FetchAll.
type FetchError struct {
	Source types.Source
	Genre  string
	Err    error
}

func (e FetchError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Source, e.Genre, e.Err)
}

func (e FetchError) Unwrap() error { return e.Err }

// New returns the fetcher for src.
func New(src types.Source, client *http.Client, oa types.OpenAlexConfig) (Fetcher, error) {
	switch src {
	case types.SourceArxiv:
		return &ArxivFetcher{Client: client}, nil
	case types.SourceMDPI:
		return &MDPIFetcher{Client: client}, nil
	case types.SourceOpenAlex:
		return &OpenAlexFetcher{
			Client:         client,
			Email:          oa.Email,
			DaysBack:       oa.DaysBack,
			SearchKeywords: oa.SearchKeywords,
		}, nil
	default:
		return nil, fmt.Errorf("no fetcher for source %q", src)
	}
}

// FetchAll fetches every genre of every target sequentially. Failures are
// logged and returned alongside the records that were fetched. Fetching
// stops early only when ctx is done.
func FetchAll(ctx context.Context, targets []Target, keywords []types.Keyword, logger *slog.Logger) ([]types.PaperRecord, []FetchError) {
	var records []types.PaperRecord
	var failures []FetchError

	for _, t := range targets {
		name := t.Fetcher.Name()
		for _, genre := range t.Genres {
			if err := ctx.Err(); err != nil {
				failures = append(failures, FetchError{Source: name, Genre: genre, Err: err})
				return records, failures
			}

			got, err := t.Fetcher.Fetch(ctx, FetchRequest{Genre: genre, Keywords: keywords})
			if err != nil {
				logger.Warn("fetch failed, skipping", "source", name, "genre", genre, "err", err)
				failures = append(failures, FetchError{Source: name, Genre: genre, Err: err})
				continue
			}
			logger.Info("fetched", "source", name, "genre", genre, "records", len(got))
			records = append(records, got...)
		}
	}
	return records, failures
}

// FilterRecent drops records published before now minus lookback. Records
// with no publication time are kept. A lookback of zero or less keeps
// everything.
func FilterRecent(records []types.PaperRecord, now time.Time, lookback time.Duration) []types.PaperRecord {
	if lookback <= 0 {
		return records
	}
	cutoff := now.Add(-lookback)
	out := make([]types.PaperRecord, 0, len(records))
	for _, r := range records {
		if !r.PublishedAt.IsZero() && r.PublishedAt.Before(cutoff) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// get issues a GET request and returns the body of a 2xx response. The
// caller closes the body.
func get(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	if err := httputil.CheckResponse(resp); err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	return resp.Body, nil
}

// fetchFeed downloads and parses an RSS or Atom feed.
func fetchFeed(ctx context.Context, client *http.Client, url string) (*gofeed.Feed, error) {
	body, err := get(ctx, client, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", url, err)
	}
	return feed, nil
}

// plainText strips markup from s and collapses whitespace.
func plainText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// authorNames flattens feed authors. Feeds that pack every author into one
// comma-separated creator element are split.
func authorNames(people []*gofeed.Person) []string {
	var out []string
	for _, p := range people {
		if p == nil {
			continue
		}
		for _, name := range strings.Split(plainText(p.Name), ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
