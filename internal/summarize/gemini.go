// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize asks Gemini to read a paper's landing page and write a
// short summary for the chat post.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/paperbot/internal/httputil"
	"github.com/pdiddy/paperbot/pkg/types"
)

// geminiAPIBase is the Generative Language API endpoint. Declared as a var
// so tests can substitute an httptest server.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// Defaults applied by New for unset configuration.
const (
	DefaultModel         = "gemini-2.5-flash"
	DefaultFallbackModel = "gemini-2.5-flash-lite"
	DefaultMarker        = "*研究の概要*"
	DefaultPrompt        = "次のURLの論文を読み、見出し「*研究の概要*」から始めて日本語で簡潔に要約してください。" +
		"最後の段落には論文のキーワードを #タグ 形式で並べてください。\n"
)

// ErrNoMarker is returned when the model output lacks the summary marker.
var ErrNoMarker = errors.New("summary marker not found")

var (
	markdownBoldStars      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	markdownBoldUnderscore = regexp.MustCompile(`__(.+?)__`)
)

// Gemini summarizes papers with the generateContent API and the url_context
// tool.
type Gemini struct {
	Client        *http.Client
	APIKey        string
	Model         string
	FallbackModel string
	Prompt        string
	Marker        string

	// MinInterval is the minimum spacing between consecutive model calls.
	MinInterval time.Duration

	Logger *slog.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// New builds a summarizer from cfg, filling unset fields with defaults.
func New(cfg types.SummaryConfig, client *http.Client, logger *slog.Logger) *Gemini {
	g := &Gemini{
		Client:        client,
		APIKey:        cfg.APIKey,
		Model:         cfg.Model,
		FallbackModel: cfg.FallbackModel,
		Prompt:        cfg.Prompt,
		Marker:        cfg.Marker,
		MinInterval:   cfg.MinInterval,
		Logger:        logger,
	}
	if g.Model == "" {
		g.Model = DefaultModel
	}
	if g.FallbackModel == "" {
		g.FallbackModel = DefaultFallbackModel
	}
	if g.Prompt == "" {
		g.Prompt = DefaultPrompt
	}
	if g.Marker == "" {
		g.Marker = DefaultMarker
	}
	return g
}

// Summarize returns a Slack-formatted summary of the paper at link. A quota
// error (HTTP 429) from the primary model is retried once on the fallback
// model; any other failure is returned.
func (g *Gemini) Summarize(ctx context.Context, link string) (string, error) {
	prompt := g.Prompt + link

	text, err := g.generate(ctx, g.Model, prompt)
	if httputil.IsStatus(err, http.StatusTooManyRequests) && g.FallbackModel != "" && g.FallbackModel != g.Model {
		if g.Logger != nil {
			g.Logger.Info("primary model rate limited, using fallback", "model", g.Model, "fallback", g.FallbackModel)
		}
		text, err = g.generate(ctx, g.FallbackModel, prompt)
	}
	if err != nil {
		return "", err
	}

	summary, ok := ExtractAfterLast(text, g.Marker)
	if !ok {
		return "", ErrNoMarker
	}
	return ToSlackMarkdown(summary), nil
}

func (g *Gemini) generate(ctx context.Context, model, prompt string) (string, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		Tools:            []tool{{URLContext: &struct{}{}}},
		GenerationConfig: generationConfig{Temperature: 0},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", geminiAPIBase, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Gemini %s request: %w", model, err)
	}
	if err := httputil.CheckResponse(resp); err != nil {
		return "", fmt.Errorf("Gemini %s request: %w", model, err)
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("parsing Gemini response: %w", err)
	}
	return out.text(), nil
}

// wait blocks until MinInterval has passed since the previous call.
func (g *Gemini) wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.MinInterval > 0 && !g.lastCall.IsZero() {
		if d := g.MinInterval - time.Since(g.lastCall); d > 0 {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	g.lastCall = time.Now()
	return nil
}

// ExtractAfterLast returns text from the last occurrence of marker to the
// end. It reports false when marker does not occur.
func ExtractAfterLast(text, marker string) (string, bool) {
	if marker == "" {
		return text, true
	}
	idx := strings.LastIndex(text, marker)
	if idx < 0 {
		return "", false
	}
	return text[idx:], true
}

// ToSlackMarkdown normalizes line endings and converts Markdown bold
// (**x**, __x__) to Slack bold (*x*).
func ToSlackMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSpace(s)
	s = markdownBoldStars.ReplaceAllString(s, "*$1*")
	return markdownBoldUnderscore.ReplaceAllString(s, "*$1*")
}

// Gemini API JSON structures.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	Tools            []tool           `json:"tools,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type tool struct {
	URLContext *struct{} `json:"url_context,omitempty"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// text concatenates the text parts of the first candidate.
func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
