// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one notification pass: fetch, filter by recency,
// match keywords, drop papers already in the SeenSet, describe, post, and
// record what was posted.
//
// A record enters the SeenSet only after the notifier accepted it, so a
// failed post is retried on the next run. Destinations that accepted a
// partially failed post are recorded and skipped on the retry, so nothing is
// posted twice to the same place.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pdiddy/paperbot/internal/dedup"
	"github.com/pdiddy/paperbot/internal/match"
	"github.com/pdiddy/paperbot/internal/notify"
	"github.com/pdiddy/paperbot/internal/source"
	"github.com/pdiddy/paperbot/internal/translate"
	"github.com/pdiddy/paperbot/pkg/types"
)

// Summarizer produces a chat-ready summary of the paper at link.
type Summarizer interface {
	Summarize(ctx context.Context, link string) (string, error)
}

// Translator renders text in targetLang, returning the input on failure.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) translate.Result
}

// Pipeline holds the collaborators of a run. Summarizer and Translator are
// optional.
type Pipeline struct {
	Targets    []source.Target
	Matcher    *match.Matcher
	Seen       dedup.SeenSet
	Summarizer Summarizer
	Translator Translator
	Notifier   notify.Notifier

	TargetLang      string
	TranslateTitles bool

	// Lookback drops records published earlier than now minus Lookback.
	Lookback time.Duration

	// MaxPosts caps notifications per run; zero means unlimited.
	MaxPosts int

	// DryRun writes posts to Out instead of notifying and leaves the
	// SeenSet untouched.
	DryRun bool
	Out    io.Writer

	Logger *slog.Logger
	Now    func() time.Time
}

// RunSummary counts what happened to the records of one run.
type RunSummary struct {
	Fetched    int `json:"fetched"`
	Recent     int `json:"recent"`
	Matched    int `json:"matched"`
	Duplicates int `json:"duplicates"`
	New        int `json:"new"`
	Posted     int `json:"posted"`
	Failed     int `json:"failed"`
	Deferred   int `json:"deferred"`

	FetchErrors []source.FetchError `json:"-"`
}

// Run performs one pass. It returns an error only when the SeenSet cannot
// be consulted or ctx ends; per-record failures are logged and counted.
func (p *Pipeline) Run(ctx context.Context) (RunSummary, error) {
	var sum RunSummary
	logger := p.logger()

	records, fetchErrs := source.FetchAll(ctx, p.Targets, p.Matcher.Keywords(), logger)
	sum.Fetched = len(records)
	sum.FetchErrors = fetchErrs
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	records = source.FilterRecent(records, p.now(), p.Lookback)
	sum.Recent = len(records)

	matched := p.Matcher.Filter(records)
	sum.Matched = len(matched)

	matched, sum.Duplicates = dedup.Collapse(matched)

	fresh, err := dedup.FilterNew(ctx, p.Seen, matched)
	if err != nil {
		return sum, fmt.Errorf("filtering seen papers: %w", err)
	}
	sum.New = len(fresh)

	if p.MaxPosts > 0 && len(fresh) > p.MaxPosts {
		sum.Deferred = len(fresh) - p.MaxPosts
		fresh = fresh[:p.MaxPosts]
	}

	for _, res := range fresh {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		post := p.describe(ctx, res)
		id := dedup.ID(res.Record)

		if p.DryRun {
			if p.Out != nil {
				fmt.Fprintln(p.Out, notify.FormatText(post))
			}
			sum.Posted++
			continue
		}

		post.Delivered, err = dedup.Delivered(ctx, p.Seen, res.Record, p.Notifier.Destinations())
		if err != nil {
			return sum, err
		}

		sent, err := p.Notifier.Notify(ctx, post)
		// A message that left must be recorded even when ctx ended meanwhile.
		record := context.WithoutCancel(ctx)
		if err != nil {
			for _, dest := range sent {
				if err := p.Seen.Add(record, dedup.NewDeliveryEntry(res.Record, dest, p.now())); err != nil {
					logger.Error("recording delivery failed", "id", id, "destination", dest, "err", err)
				}
			}
			logger.Error("notify failed, will retry next run", "id", id, "delivered", len(sent), "err", err)
			sum.Failed++
			continue
		}
		if err := p.Seen.Add(record, dedup.NewEntry(res.Record, p.now())); err != nil {
			logger.Error("recording posted paper failed", "id", id, "err", err)
			sum.Failed++
			continue
		}
		logger.Info("posted", "id", id, "source", res.Record.Source, "kind", post.Kind)
		sum.Posted++
	}

	logger.Info("run complete",
		"fetched", sum.Fetched, "recent", sum.Recent, "matched", sum.Matched,
		"new", sum.New, "posted", sum.Posted, "failed", sum.Failed,
		"deferred", sum.Deferred, "fetch_errors", len(sum.FetchErrors))
	return sum, nil
}

// describe builds the post for a match. The description is the summary
// when one is available, else the translated abstract, else the abstract.
func (p *Pipeline) describe(ctx context.Context, res match.Result) notify.Post {
	post := notify.Post{
		Record:      res.Record,
		Keywords:    res.Keywords,
		Description: res.Record.Abstract,
		Kind:        notify.KindAbstract,
	}

	if p.Summarizer != nil && res.Record.URL != "" {
		summary, err := p.Summarizer.Summarize(ctx, res.Record.URL)
		switch {
		case err != nil:
			p.logger().Warn("summary unavailable", "url", res.Record.URL, "err", err)
		case summary != "":
			post.Description = summary
			post.Kind = notify.KindSummary
		}
	}

	if p.Translator != nil {
		if post.Kind == notify.KindAbstract && res.Record.Abstract != "" {
			if tr := p.Translator.Translate(ctx, res.Record.Abstract, p.TargetLang); !tr.Fallback {
				post.Description = tr.Text
				post.Kind = notify.KindTranslation
			}
		}
		if p.TranslateTitles {
			if tr := p.Translator.Translate(ctx, res.Record.Title, p.TargetLang); !tr.Fallback {
				post.Title = tr.Text
			}
		}
	}
	return post
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewMatcher builds a Matcher whose variable keywords use the named
// normalization steps. No steps selects the default chain.
func NewMatcher(kws []types.Keyword, steps []string) (*match.Matcher, error) {
	if len(steps) == 0 {
		return match.New(kws, nil), nil
	}
	parsed, err := match.ParseSteps(steps)
	if err != nil {
		return nil, err
	}
	return match.New(kws, match.NewNormalizer(parsed...)), nil
}
