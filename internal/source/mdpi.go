// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/paperbot/pkg/types"
)

// mdpiFeedBase is the MDPI journal RSS endpoint; the genre (journal slug)
// is appended. Declared as a var so tests can substitute an httptest server.
var mdpiFeedBase = "https://www.mdpi.com/rss/journal/"

// mdpiTitlePrefix matches the "Journal, Vol. 18, Pages 1: " citation that
// MDPI puts in front of every title.
var mdpiTitlePrefix = regexp.MustCompile(`^.*[0-9]: `)

// mdpiDateOffset shifts item dates forward: MDPI stamps items the day
// before they appear in the feed.
const mdpiDateOffset = 24 * time.Hour

// MDPIFetcher reads the latest-articles feed of an MDPI journal.
type MDPIFetcher struct {
	Client *http.Client
}

// Name returns the source identifier.
func (f *MDPIFetcher) Name() types.Source { return types.SourceMDPI }

// Fetch returns the latest articles of the journal req.Genre.
func (f *MDPIFetcher) Fetch(ctx context.Context, req FetchRequest) ([]types.PaperRecord, error) {
	feed, err := fetchFeed(ctx, f.Client, mdpiFeedBase+url.PathEscape(req.Genre))
	if err != nil {
		return nil, err
	}

	records := make([]types.PaperRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := parseMDPITitle(item.Title)
		if title == "" {
			continue
		}
		published := timeOrZero(item.PublishedParsed)
		if published.IsZero() {
			published = timeOrZero(item.UpdatedParsed)
		}
		if !published.IsZero() {
			published = published.Add(mdpiDateOffset)
		}
		abstract := item.Description
		if abstract == "" {
			abstract = item.Content
		}
		records = append(records, types.PaperRecord{
			Title:       title,
			Abstract:    plainText(abstract),
			URL:         strings.TrimSpace(item.Link),
			Source:      types.SourceMDPI,
			Genre:       req.Genre,
			Authors:     authorNames(item.Authors),
			PublishedAt: published,
		})
	}
	return records, nil
}

func parseMDPITitle(title string) string {
	return strings.TrimSpace(mdpiTitlePrefix.ReplaceAllString(plainText(title), ""))
}
