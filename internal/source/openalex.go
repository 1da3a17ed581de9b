// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/paperbot/pkg/types"
)

// openAlexWorksURL is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexWorksURL = "https://api.openalex.org/works"

const (
	defaultDaysBack   = 2
	openAlexPerPage   = 200
	openAlexDateShift = 24 * time.Hour
)

// OpenAlexFetcher lists recent works of a journal identified by ISSN.
type OpenAlexFetcher struct {
	Client *http.Client

	// Email is sent as mailto parameter for polite pool access.
	Email string

	// DaysBack is how many days before today publications are requested.
	DaysBack int

	// SearchKeywords narrows results with an OR search over keyword texts.
	SearchKeywords bool

	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// Name returns the source identifier.
func (f *OpenAlexFetcher) Name() types.Source { return types.SourceOpenAlex }

// Fetch returns works whose primary location is the journal with ISSN
// req.Genre, newest first.
func (f *OpenAlexFetcher) Fetch(ctx context.Context, req FetchRequest) ([]types.PaperRecord, error) {
	body, err := get(ctx, f.Client, openAlexWorksURL+"?"+f.params(req).Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var oar openAlexResponse
	if err := json.NewDecoder(body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	records := make([]types.PaperRecord, 0, len(oar.Results))
	for _, work := range oar.Results {
		title := strings.TrimSpace(work.Title)
		if title == "" {
			continue
		}
		r := types.PaperRecord{
			Title:    title,
			Abstract: reconstructAbstract(work.AbstractInvertedIndex),
			URL:      work.DOI,
			Source:   types.SourceOpenAlex,
			Genre:    req.Genre,
		}
		if r.URL == "" {
			r.URL = work.ID
		}
		for _, a := range work.Authorships {
			if a.Author.DisplayName != "" {
				r.Authors = append(r.Authors, a.Author.DisplayName)
			}
		}
		if t, parseErr := time.Parse("2006-01-02", work.PublicationDate); parseErr == nil {
			// Publication dates have day precision; treat them as the end of that day.
			r.PublishedAt = t.Add(openAlexDateShift)
		}
		records = append(records, r)
	}
	return records, nil
}

func (f *OpenAlexFetcher) params(req FetchRequest) url.Values {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	daysBack := f.DaysBack
	if daysBack <= 0 {
		daysBack = defaultDaysBack
	}
	from := now().UTC().AddDate(0, 0, -daysBack).Format("2006-01-02")

	params := url.Values{
		"filter":   {"primary_location.source.issn:" + req.Genre + ",from_publication_date:" + from},
		"sort":     {"publication_date:desc"},
		"per-page": {fmt.Sprintf("%d", openAlexPerPage)},
		"select":   {"id,doi,title,publication_date,authorships,abstract_inverted_index"},
	}
	if f.SearchKeywords {
		if q := buildOpenAlexSearch(req.Keywords); q != "" {
			params.Set("search", q)
		}
	}
	if f.Email != "" {
		params.Set("mailto", f.Email)
	}
	return params
}

// buildOpenAlexSearch joins keyword texts with OR, quoting multi-word
// phrases.
func buildOpenAlexSearch(keywords []types.Keyword) string {
	var parts []string
	for _, text := range types.Texts(keywords) {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.ContainsAny(text, " \t") {
			text = `"` + text + `"`
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " OR ")
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the positions where it
// appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].pos < pairs[j].pos })

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}
