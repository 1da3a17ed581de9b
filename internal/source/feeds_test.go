// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperbot/internal/httputil"
	"github.com/pdiddy/paperbot/pkg/types"
)

const sampleArxivRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss xmlns:dc="http://purl.org/dc/elements/1.1/" version="2.0">
<channel>
<title>cs.CV updates on arXiv.org</title>
<link>http://rss.arxiv.org/rss/cs.CV</link>
<description>cs.CV updates on the arXiv.org e-print archive.</description>
<lastBuildDate>Tue, 03 Mar 2026 05:00:00 +0000</lastBuildDate>
<item>
<title>SAR Image Segmentation with Transformers</title>
<link>http://arxiv.org/abs/2603.00001</link>
<description>arXiv:2603.00001v1 Announce Type: new
Abstract: We study &lt;b&gt;SAR&lt;/b&gt;
 segmentation.</description>
<dc:creator>Alice Smith, Bob Jones</dc:creator>
</item>
<item>
<title>Old Style Title. (arXiv:2603.00002v1 [cs.CV])</title>
<link>https://arxiv.org/abs/2603.00002</link>
<description>&lt;p&gt;Super-Resolution methods.&lt;/p&gt;</description>
<dc:creator>Carol White</dc:creator>
</item>
</channel>
</rss>`

const sampleMDPIRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss xmlns:dc="http://purl.org/dc/elements/1.1/" version="2.0">
<channel>
<title>Remote Sensing</title>
<link>https://www.mdpi.com/journal/remotesensing</link>
<description>Latest open access articles published in Remote Sensing</description>
<item>
<title>Remote Sensing, Vol. 18, Pages 512: Deep Segmentation of Fields</title>
<link>https://www.mdpi.com/2072-4292/18/4/512</link>
<description>&lt;p&gt;Fields are &lt;i&gt;segmented&lt;/i&gt;.&lt;/p&gt;</description>
<pubDate>Mon, 02 Mar 2026 10:00:00 +0000</pubDate>
<dc:creator>Dan Brown</dc:creator>
</item>
</channel>
</rss>`

const sampleOpenAlexJSON = `{
  "meta": {"count": 2},
  "results": [
    {
      "id": "https://openalex.org/W1",
      "title": "Change Detection in SAR Imagery",
      "doi": "https://doi.org/10.3390/rs18040001",
      "publication_date": "2026-03-02",
      "authorships": [
        {"author": {"display_name": "Erin Gray"}},
        {"author": {"display_name": ""}}
      ],
      "abstract_inverted_index": {"We": [0], "detect": [1], "change": [2]}
    },
    {
      "id": "https://openalex.org/W2",
      "title": "No DOI Work",
      "doi": "",
      "publication_date": "",
      "authorships": [],
      "abstract_inverted_index": null
    },
    {
      "id": "https://openalex.org/W3",
      "title": "  ",
      "doi": "https://doi.org/10.3390/skip"
    }
  ]
}`

func serve(t *testing.T, contentType, body string, seen *http.Request) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = *r
		}
		w.Header().Set("Content-Type", contentType)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestArxivFetch(t *testing.T) {
	var got http.Request
	ts := serve(t, "application/rss+xml", sampleArxivRSS, &got)

	old := arxivFeedBase
	arxivFeedBase = ts.URL + "/rss/"
	defer func() { arxivFeedBase = old }()

	f := &ArxivFetcher{Client: ts.Client()}
	records, err := f.Fetch(context.Background(), FetchRequest{Genre: "cs.CV"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "/rss/cs.CV", got.URL.Path)

	announced := time.Date(2026, 3, 3, 5, 0, 0, 0, time.UTC)

	r0 := records[0]
	assert.Equal(t, "SAR Image Segmentation with Transformers", r0.Title)
	assert.Equal(t, "https://arxiv.org/abs/2603.00001", r0.URL)
	assert.Equal(t, "We study SAR segmentation.", r0.Abstract)
	assert.Equal(t, []string{"Alice Smith", "Bob Jones"}, r0.Authors)
	assert.Equal(t, types.SourceArxiv, r0.Source)
	assert.Equal(t, "cs.CV", r0.Genre)
	assert.True(t, announced.Equal(r0.PublishedAt), "PublishedAt = %v", r0.PublishedAt)

	r1 := records[1]
	assert.Equal(t, "Old Style Title.", r1.Title)
	assert.Equal(t, "Super-Resolution methods.", r1.Abstract)
	assert.True(t, announced.Equal(r1.PublishedAt))
}

func TestArxivFetchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	old := arxivFeedBase
	arxivFeedBase = ts.URL + "/"
	defer func() { arxivFeedBase = old }()

	_, err := (&ArxivFetcher{Client: ts.Client()}).Fetch(context.Background(), FetchRequest{Genre: "cs.CV"})
	require.Error(t, err)
	assert.True(t, httputil.IsStatus(err, http.StatusServiceUnavailable))
}

func TestArxivFetchMalformedFeed(t *testing.T) {
	ts := serve(t, "text/plain", "not a feed", nil)

	old := arxivFeedBase
	arxivFeedBase = ts.URL + "/"
	defer func() { arxivFeedBase = old }()

	_, err := (&ArxivFetcher{Client: ts.Client()}).Fetch(context.Background(), FetchRequest{Genre: "cs.CV"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing feed")
}

func TestParseArxivTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Plain Title", "Plain Title"},
		{"Deep Nets. (arXiv:2401.00001v2 [cs.CV] UPDATED)", "Deep Nets."},
		{"  Spaced  ", "Spaced"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseArxivTitle(tt.in))
	}
}

func TestMDPIFetch(t *testing.T) {
	var got http.Request
	ts := serve(t, "application/rss+xml", sampleMDPIRSS, &got)

	old := mdpiFeedBase
	mdpiFeedBase = ts.URL + "/rss/journal/"
	defer func() { mdpiFeedBase = old }()

	records, err := (&MDPIFetcher{Client: ts.Client()}).Fetch(context.Background(), FetchRequest{Genre: "remotesensing"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "/rss/journal/remotesensing", got.URL.Path)

	r := records[0]
	assert.Equal(t, "Deep Segmentation of Fields", r.Title)
	assert.Equal(t, "https://www.mdpi.com/2072-4292/18/4/512", r.URL)
	assert.Equal(t, "Fields are segmented.", r.Abstract)
	assert.Equal(t, []string{"Dan Brown"}, r.Authors)
	assert.Equal(t, types.SourceMDPI, r.Source)
	assert.True(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC).Equal(r.PublishedAt), "PublishedAt = %v", r.PublishedAt)
}

func TestOpenAlexFetch(t *testing.T) {
	var got http.Request
	ts := serve(t, "application/json", sampleOpenAlexJSON, &got)

	old := openAlexWorksURL
	openAlexWorksURL = ts.URL
	defer func() { openAlexWorksURL = old }()

	f := &OpenAlexFetcher{
		Client:         ts.Client(),
		Email:          "bot@example.org",
		SearchKeywords: true,
		Now:            func() time.Time { return time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC) },
	}
	records, err := f.Fetch(context.Background(), FetchRequest{
		Genre: "2072-4292",
		Keywords: []types.Keyword{
			{Text: "SAR", Mode: types.ModeFixed},
			{Text: "change detection", Mode: types.ModeVariable},
		},
	})
	require.NoError(t, err)

	q := got.URL.Query()
	assert.Equal(t, "primary_location.source.issn:2072-4292,from_publication_date:2026-03-01", q.Get("filter"))
	assert.Equal(t, "publication_date:desc", q.Get("sort"))
	assert.Equal(t, "200", q.Get("per-page"))
	assert.Equal(t, `SAR OR "change detection"`, q.Get("search"))
	assert.Equal(t, "bot@example.org", q.Get("mailto"))

	require.Len(t, records, 2)
	r0 := records[0]
	assert.Equal(t, "Change Detection in SAR Imagery", r0.Title)
	assert.Equal(t, "https://doi.org/10.3390/rs18040001", r0.URL)
	assert.Equal(t, "We detect change", r0.Abstract)
	assert.Equal(t, []string{"Erin Gray"}, r0.Authors)
	assert.Equal(t, "2072-4292", r0.Genre)
	assert.True(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC).Equal(r0.PublishedAt))

	r1 := records[1]
	assert.Equal(t, "https://openalex.org/W2", r1.URL)
	assert.Empty(t, r1.Abstract)
	assert.True(t, r1.PublishedAt.IsZero())
}

func TestOpenAlexParamsWithoutSearch(t *testing.T) {
	f := &OpenAlexFetcher{DaysBack: 7, Now: func() time.Time { return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) }}
	p := f.params(FetchRequest{Genre: "1424-8220", Keywords: []types.Keyword{{Text: "SAR"}}})
	assert.Equal(t, "primary_location.source.issn:1424-8220,from_publication_date:2026-03-03", p.Get("filter"))
	assert.Empty(t, p.Get("search"))
	assert.Empty(t, p.Get("mailto"))
}

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{"nil map", nil, ""},
		{"single word", map[string][]int{"hello": {0}}, "hello"},
		{
			"repeated words",
			map[string][]int{"the": {0, 4}, "cat": {1}, "sat": {2}, "on": {3}, "mat": {5}},
			"the cat sat on the mat",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reconstructAbstract(tt.index))
		})
	}
}
