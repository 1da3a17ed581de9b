// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/paperbot/internal/httputil"
	"github.com/pdiddy/paperbot/internal/keywords"
	"github.com/pdiddy/paperbot/internal/match"
	"github.com/pdiddy/paperbot/internal/notify"
	"github.com/pdiddy/paperbot/internal/pipeline"
	"github.com/pdiddy/paperbot/internal/seenstore"
	"github.com/pdiddy/paperbot/internal/source"
	"github.com/pdiddy/paperbot/internal/summarize"
	"github.com/pdiddy/paperbot/internal/translate"
	"github.com/pdiddy/paperbot/pkg/types"
)

// runOptions are per-invocation overrides of botCfg.
type runOptions struct {
	DryRun   bool
	MaxPosts int
	Out      io.Writer
}

// loadMatcher reads the keyword file and builds the matcher.
func loadMatcher(cfg types.BotConfig) (*match.Matcher, error) {
	kws, err := keywords.Load(cfg.KeywordsFile)
	if err != nil {
		return nil, err
	}
	return pipeline.NewMatcher(kws, cfg.Matching.VariableSteps)
}

// buildTargets creates one fetcher per configured source.
func buildTargets(cfg types.BotConfig, client *http.Client) ([]source.Target, error) {
	targets := make([]source.Target, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		f, err := source.New(sc.Source, client, cfg.OpenAlex)
		if err != nil {
			return nil, err
		}
		targets = append(targets, source.Target{Fetcher: f, Genres: sc.Genres})
	}
	return targets, nil
}

// buildNotifier combines every configured target.
func buildNotifier(cfg types.BotConfig, client *http.Client) (notify.Notifier, error) {
	var targets notify.Multi
	if len(cfg.Slack.Workspaces) > 0 {
		targets = append(targets, notify.NewSlack(cfg.Slack))
	}
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(cfg.Telegram, client)
		if err != nil {
			return nil, err
		}
		targets = append(targets, tg)
	}
	if len(targets) == 0 {
		return nil, errors.New("no notification target configured")
	}
	if len(targets) == 1 {
		return targets[0], nil
	}
	return targets, nil
}

// buildPipeline wires every collaborator of a run. The returned store must
// be closed by the caller.
func buildPipeline(ctx context.Context, cfg types.BotConfig, opts runOptions) (*pipeline.Pipeline, seenstore.Store, error) {
	client := httputil.NewClient(cfg.HTTP)

	matcher, err := loadMatcher(cfg)
	if err != nil {
		return nil, nil, err
	}
	targets, err := buildTargets(cfg, client)
	if err != nil {
		return nil, nil, err
	}

	p := &pipeline.Pipeline{
		Targets:         targets,
		Matcher:         matcher,
		TargetLang:      cfg.Translation.TargetLang,
		TranslateTitles: cfg.Translation.TranslateTitles,
		Lookback:        cfg.Lookback,
		MaxPosts:        cfg.MaxPosts,
		DryRun:          opts.DryRun,
		Out:             opts.Out,
		Logger:          logger,
	}
	if opts.MaxPosts > 0 {
		p.MaxPosts = opts.MaxPosts
	}

	if cfg.Summary.Enabled() {
		p.Summarizer = summarize.New(cfg.Summary, client, logger)
	}
	if chain := translate.NewChain(cfg.Translation, client, logger); len(chain.Providers) > 0 {
		p.Translator = chain
	}
	if !opts.DryRun {
		if p.Notifier, err = buildNotifier(cfg, client); err != nil {
			return nil, nil, err
		}
	}

	open := seenstore.Open
	if opts.DryRun {
		open = seenstore.OpenReadOnly
	}
	store, err := open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("opening seen store: %w", err)
	}
	p.Seen = store

	logger.Debug("pipeline ready",
		"sources", len(targets),
		"keywords", len(matcher.Keywords()),
		"summarizer", p.Summarizer != nil,
		"translator", p.Translator != nil,
		"store", cfg.Store.Driver,
		"dry_run", opts.DryRun)
	return p, store, nil
}
