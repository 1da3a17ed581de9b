// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/paperbot/pkg/types"
)

// arxivFeedBase is the arXiv RSS endpoint; the genre (category) is
// appended. Declared as a var so tests can substitute an httptest server.
var arxivFeedBase = "https://rss.arxiv.org/rss/"

var arxivTitleSuffix = regexp.MustCompile(`\s*\(arXiv:[^)]*\)\s*$`)

// ArxivFetcher reads the daily announcement feed of an arXiv category.
type ArxivFetcher struct {
	Client *http.Client
}

// Name returns the source identifier.
func (f *ArxivFetcher) Name() types.Source { return types.SourceArxiv }

// Fetch returns the papers announced in the category req.Genre. Every record
// carries the feed's update time, which is when the batch was announced.
func (f *ArxivFetcher) Fetch(ctx context.Context, req FetchRequest) ([]types.PaperRecord, error) {
	feed, err := fetchFeed(ctx, f.Client, arxivFeedBase+url.PathEscape(req.Genre))
	if err != nil {
		return nil, err
	}

	announced := timeOrZero(feed.UpdatedParsed)
	if announced.IsZero() {
		announced = timeOrZero(feed.PublishedParsed)
	}

	records := make([]types.PaperRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := parseArxivTitle(item.Title)
		if title == "" {
			continue
		}
		published := announced
		if published.IsZero() {
			published = timeOrZero(item.PublishedParsed)
		}
		records = append(records, types.PaperRecord{
			Title:       title,
			Abstract:    arxivAbstract(item.Description),
			URL:         httpsLink(item.Link),
			Source:      types.SourceArxiv,
			Genre:       req.Genre,
			Authors:     authorNames(item.Authors),
			PublishedAt: published,
		})
	}
	return records, nil
}

// parseArxivTitle drops the trailing "(arXiv:ID [cat] UPDATED)" marker.
func parseArxivTitle(title string) string {
	return strings.TrimSpace(arxivTitleSuffix.ReplaceAllString(plainText(title), ""))
}

// arxivAbstract returns the text after "Abstract:" in an item description,
// or the whole description when the marker is absent.
func arxivAbstract(description string) string {
	text := plainText(description)
	if _, after, ok := strings.Cut(text, "Abstract:"); ok {
		text = after
	}
	return strings.TrimSpace(text)
}

func httpsLink(link string) string {
	link = strings.TrimSpace(link)
	if strings.HasPrefix(link, "http://") {
		return "https://" + strings.TrimPrefix(link, "http://")
	}
	return link
}
