// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notify posts matched papers to chat services.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/paperbot/pkg/types"
)

// DescriptionKind records how a post's description was produced.
type DescriptionKind string

const (
	KindSummary     DescriptionKind = "summary"
	KindTranslation DescriptionKind = "translation"
	KindAbstract    DescriptionKind = "abstract"
)

// Post is a matched record ready to be sent.
type Post struct {
	Record types.PaperRecord

	// Keywords are the keywords that matched the record, in configuration order.
	Keywords []types.Keyword

	// Title is the display title; it differs from Record.Title when titles
	// are translated.
	Title string

	Description string
	Kind        DescriptionKind

	// Delivered holds the destinations that accepted this post in an
	// earlier run. Notifiers skip them.
	Delivered map[string]bool
}

// DisplayTitle returns Title, falling back to the record title.
func (p Post) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Record.Title
}

// Tags renders the matched keywords as hashtags. Spaces inside a keyword
// are dropped so each tag stays one token.
func (p Post) Tags() []string {
	tags := make([]string, 0, len(p.Keywords))
	for _, kw := range p.Keywords {
		tag := strings.Join(strings.Fields(kw.Text), "")
		if tag != "" {
			tags = append(tags, "#"+tag)
		}
	}
	return tags
}

// Origin describes where the record came from, e.g. "arxiv cs.CV".
func (p Post) Origin() string {
	if p.Record.Genre == "" {
		return string(p.Record.Source)
	}
	return string(p.Record.Source) + " " + p.Record.Genre
}

// Notifier delivers a post to one chat service.
//
// Notify sends p to every destination not in p.Delivered and returns the
// destinations that accepted it, even when others failed.
type Notifier interface {
	Name() string
	Destinations() []string
	Notify(ctx context.Context, p Post) ([]string, error)
}

// Multi sends every post to all of its notifiers. A post succeeds only when
// every notifier accepted it.
type Multi []Notifier

// Name returns the joined names of the notifiers.
func (m Multi) Name() string {
	names := make([]string, len(m))
	for i, n := range m {
		names[i] = n.Name()
	}
	return strings.Join(names, "+")
}

// Destinations concatenates the destinations of the notifiers.
func (m Multi) Destinations() []string {
	var dests []string
	for _, n := range m {
		dests = append(dests, n.Destinations()...)
	}
	return dests
}

// Notify posts p to each notifier in order and joins their errors.
func (m Multi) Notify(ctx context.Context, p Post) ([]string, error) {
	var sent []string
	var errs []error
	for _, n := range m {
		ok, err := n.Notify(ctx, p)
		sent = append(sent, ok...)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return sent, errors.Join(errs...)
}

// FormatText renders a post as plain text for dry runs and logs.
func FormatText(p Post) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n%s\n", p.DisplayTitle(), p.Record.URL)
	if authors := p.Record.AuthorList(); authors != "" {
		fmt.Fprintf(&b, "%s\n", authors)
	}
	fmt.Fprintf(&b, "%s  (%s)\n", strings.Join(p.Tags(), " "), p.Origin())
	if p.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Description)
	}
	return b.String()
}
