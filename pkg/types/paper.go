// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paperbot pipeline:
// fetched paper records, keyword definitions, and bot configuration.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies a configured paper source.
type Source string

const (
	SourceArxiv    Source = "arxiv"
	SourceMDPI     Source = "mdpi"
	SourceOpenAlex Source = "openalex"
)

// KnownSources lists every source a fetcher exists for, in default order.
var KnownSources = []Source{SourceArxiv, SourceMDPI, SourceOpenAlex}

// ParseSource converts a configuration name into a Source. Matching is
// case-insensitive so "ArXiv" and "MDPI" from older configs still resolve.
func ParseSource(name string) (Source, error) {
	s := Source(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range KnownSources {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", name)
}

// PaperRecord is a candidate paper as returned by a source fetcher.
// Records are treated as immutable once fetched.
type PaperRecord struct {
	// Title is the cleaned paper title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the plain-text abstract or feed summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// URL is the canonical link to the paper. May be empty for sources
	// that do not provide a stable link.
	URL string `json:"url" yaml:"url"`

	// Source is the backend that produced the record.
	Source Source `json:"source" yaml:"source"`

	// Genre is the source-specific feed selector the record came from
	// (arXiv category, MDPI journal, ISSN).
	Genre string `json:"genre,omitempty" yaml:"genre,omitempty"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// PublishedAt is the publication or announcement time. Zero when unknown.
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`
}

// SearchText returns the text keywords are matched against.
func (p PaperRecord) SearchText() string {
	return p.Title + "\n" + p.Abstract
}

// AuthorList joins the authors for display.
func (p PaperRecord) AuthorList() string {
	return strings.Join(p.Authors, ", ")
}
