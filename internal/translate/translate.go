// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package translate renders abstracts and titles in the target language.
// Providers are tried in order; when every provider fails the original text
// is used so a translation outage never blocks a post.
package translate

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pdiddy/paperbot/pkg/types"
)

// Translator translates text into targetLang.
type Translator interface {
	Name() string
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Result is the outcome of a Chain translation.
type Result struct {
	Text string

	// Provider names the translator that produced Text. Empty on fallback.
	Provider string

	// Fallback is set when every provider failed and Text is the input.
	Fallback bool
}

// Chain tries its providers in order.
type Chain struct {
	Providers []Translator
	Logger    *slog.Logger
}

// NewChain builds the provider chain from cfg: DeepL first, then
// Microsoft, each only when its key is configured.
func NewChain(cfg types.TranslationConfig, client *http.Client, logger *slog.Logger) *Chain {
	c := &Chain{Logger: logger}
	if cfg.DeepL.APIKey != "" {
		c.Providers = append(c.Providers, &DeepL{
			Client:     client,
			APIKey:     cfg.DeepL.APIKey,
			SourceLang: cfg.SourceLang,
		})
	}
	if cfg.Microsoft.Key != "" {
		c.Providers = append(c.Providers, &Microsoft{
			Client:     client,
			Key:        cfg.Microsoft.Key,
			Region:     cfg.Microsoft.Region,
			SourceLang: cfg.SourceLang,
		})
	}
	return c
}

// Translate returns the first successful provider translation of text.
// Empty input is returned as is without calling any provider.
func (c *Chain) Translate(ctx context.Context, text, targetLang string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Text: text}
	}
	for _, p := range c.Providers {
		out, err := p.Translate(ctx, text, targetLang)
		if err == nil {
			return Result{Text: out, Provider: p.Name()}
		}
		if c.Logger != nil {
			c.Logger.Warn("translation failed", "provider", p.Name(), "err", err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return Result{Text: text, Fallback: true}
}
