// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperbot/internal/secrets"
	"github.com/pdiddy/paperbot/pkg/types"
)

const sampleYAML = `
keywords_file: keywords/remote.yml
sources:
  - name: ArXiv
    genres: [cs.CV, eess.IV]
  - name: openalex
    genres: ["2072-4292"]
lookback: 24h
max_posts: 10
openalex:
  email: bot@example.org
  days_back: 3
matching:
  variable_steps: [lowercase, plural]
translation:
  target_lang: JA
  translate_titles: true
summary:
  min_interval: 13s
slack:
  workspaces:
    - name: lab
      channels: [C0123]
telegram:
  token: "123:abc"
  chat_ids: [-1001]
store:
  driver: GCS
  bucket: paperbot-state
log:
  level: debug
  format: json
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paperbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	v := New(writeConfig(t, sampleYAML))
	used, err := Read(v)
	require.NoError(t, err)
	assert.NotEmpty(t, used)

	cfg, err := Load(v, secrets.Set{"slack-token-lab": "xoxb-lab", "deepl-api-key": "d:fx"})
	require.NoError(t, err)

	assert.Equal(t, "keywords/remote.yml", cfg.KeywordsFile)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, types.SourceArxiv, cfg.Sources[0].Source)
	assert.Equal(t, []string{"cs.CV", "eess.IV"}, cfg.Sources[0].Genres)
	assert.Equal(t, types.SourceOpenAlex, cfg.Sources[1].Source)
	assert.Equal(t, 24*time.Hour, cfg.Lookback)
	assert.Equal(t, 10, cfg.MaxPosts)
	assert.Equal(t, 3, cfg.OpenAlex.DaysBack)
	assert.Equal(t, []string{"lowercase", "plural"}, cfg.Matching.VariableSteps)
	assert.True(t, cfg.Translation.TranslateTitles)
	assert.Equal(t, "EN", cfg.Translation.SourceLang)
	assert.Equal(t, "d:fx", cfg.Translation.DeepL.APIKey)
	assert.Equal(t, 13*time.Second, cfg.Summary.MinInterval)
	assert.Equal(t, "gemini-2.5-flash", cfg.Summary.Model)
	require.Len(t, cfg.Slack.Workspaces, 1)
	assert.Equal(t, "xoxb-lab", cfg.Slack.Workspaces[0].Token)
	assert.Equal(t, []int64{-1001}, cfg.Telegram.ChatIDs)
	assert.Equal(t, types.StoreGCS, cfg.Store.Driver)
	assert.Equal(t, "seen/", cfg.Store.Prefix)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.NoError(t, Validate(cfg, true))
}

func TestDefaults(t *testing.T) {
	v := New(filepath.Join(t.TempDir(), "absent.yaml"))
	cfg, err := Load(v, nil)
	require.NoError(t, err)

	assert.Equal(t, "keyword.yml", cfg.KeywordsFile)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, types.SourceArxiv, cfg.Sources[0].Source)
	assert.Equal(t, []string{"remotesensing"}, cfg.Sources[1].Genres)
	assert.Equal(t, 48*time.Hour, cfg.Lookback)
	assert.Equal(t, []string{"lowercase", "punctuation", "plural"}, cfg.Matching.VariableSteps)
	assert.Equal(t, "JA", cfg.Translation.TargetLang)
	assert.Equal(t, types.StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, filepath.Join("data", "seen.db"), cfg.Store.Path)
	assert.Equal(t, "0 9 * * *", cfg.Schedule.Cron)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)

	assert.NoError(t, Validate(cfg, false))
}

func TestReadMissingFileInSearchPath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	used, err := Read(New(""))
	require.NoError(t, err)
	assert.Empty(t, used)
}

func TestReadMalformedFile(t *testing.T) {
	_, err := Read(New(writeConfig(t, "sources: [unterminated\n")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PAPERBOT_LOG_LEVEL", "warn")
	t.Setenv("PAPERBOT_STORE_PATH", "/var/lib/paperbot/seen.db")
	t.Setenv("PAPERBOT_LOOKBACK", "72h")
	t.Setenv("DEEPL_API_TOKEN", "legacy-deepl")
	t.Setenv("GEMINI_API_TOKEN", "legacy-gemini")

	cfg, err := Load(New(filepath.Join(t.TempDir(), "absent.yaml")), nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/var/lib/paperbot/seen.db", cfg.Store.Path)
	assert.Equal(t, 72*time.Hour, cfg.Lookback)
	assert.Equal(t, "legacy-deepl", cfg.Translation.DeepL.APIKey)
	assert.Equal(t, "legacy-gemini", cfg.Summary.APIKey)
}

func TestLegacyWorkspaces(t *testing.T) {
	got := LegacyWorkspaces([]string{
		"SLACK_API_TOKEN1=xoxb-b",
		"POST_CHANNEL1=C2, C3",
		"SLACK_API_TOKEN=xoxb-a",
		"POST_CHANNEL=C1",
		"SLACK_API_TOKEN2=",
		"HOME=/root",
	})
	assert.Equal(t, []types.Workspace{
		{Name: "workspace", Token: "xoxb-a", Channels: []string{"C1"}},
		{Name: "workspace1", Token: "xoxb-b", Channels: []string{"C2", "C3"}},
	}, got)
}

func TestLegacyWorkspacesNumericOrder(t *testing.T) {
	got := LegacyWorkspaces([]string{
		"SLACK_API_TOKEN10=xoxb-10",
		"SLACK_API_TOKEN_LAB=xoxb-lab",
		"SLACK_API_TOKEN2=xoxb-2",
		"SLACK_API_TOKEN=xoxb-0",
		"SLACK_API_TOKEN1=xoxb-1",
	})
	var names []string
	for _, ws := range got {
		names = append(names, ws.Name)
	}
	assert.Equal(t, []string{"workspace", "workspace1", "workspace2", "workspace10", "workspace_LAB"}, names)
}

func TestApplySecrets(t *testing.T) {
	cfg := types.BotConfig{
		Summary: types.SummaryConfig{APIKey: "configured"},
		Slack:   types.SlackConfig{Workspaces: []types.Workspace{{Name: "lab"}, {Name: "team", Token: "keep"}}},
	}
	ApplySecrets(&cfg, secrets.Set{
		"gemini-api-key":   "from-file",
		"telegram-token":   "tg",
		"slack-token-lab":  "xoxb-lab",
		"slack-token-team": "xoxb-team",
		"serve-token":      "s3cret",
	})
	assert.Equal(t, "configured", cfg.Summary.APIKey)
	assert.Equal(t, "tg", cfg.Telegram.Token)
	assert.Equal(t, "xoxb-lab", cfg.Slack.Workspaces[0].Token)
	assert.Equal(t, "keep", cfg.Slack.Workspaces[1].Token)
	assert.Equal(t, "s3cret", cfg.Serve.Token)
}

func validConfig() types.BotConfig {
	return types.BotConfig{
		KeywordsFile: "keyword.yml",
		Sources:      []types.SourceConfig{{Source: types.SourceArxiv, Genres: []string{"cs.CV"}}},
		Translation:  types.TranslationConfig{TargetLang: "JA"},
		Slack:        types.SlackConfig{Workspaces: []types.Workspace{{Name: "lab", Token: "xoxb", Channels: []string{"C1"}}}},
		Store:        types.StoreConfig{Driver: types.StoreSQLite, Path: "seen.db"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.BotConfig)
		field  string
	}{
		{"no sources", func(c *types.BotConfig) { c.Sources = nil }, "sources"},
		{"unknown source", func(c *types.BotConfig) { c.Sources[0].Source = "ieee" }, "sources[0].name"},
		{"empty genres", func(c *types.BotConfig) { c.Sources[0].Genres = nil }, "sources[0].genres"},
		{"blank genre", func(c *types.BotConfig) { c.Sources[0].Genres = []string{" "} }, "sources[0].genres[0]"},
		{"negative lookback", func(c *types.BotConfig) { c.Lookback = -time.Hour }, "lookback"},
		{"unknown step", func(c *types.BotConfig) { c.Matching.VariableSteps = []string{"stem"} }, "matching.variable_steps"},
		{"workspace without token", func(c *types.BotConfig) { c.Slack.Workspaces[0].Token = "" }, "slack.workspaces[0].token"},
		{"workspace without channels", func(c *types.BotConfig) { c.Slack.Workspaces[0].Channels = nil }, "slack.workspaces[0].channels"},
		{"no targets", func(c *types.BotConfig) { c.Slack.Workspaces = nil }, "slack.workspaces"},
		{"telegram without chats", func(c *types.BotConfig) { c.Telegram.Token = "t" }, "telegram.chat_ids"},
		{"unknown driver", func(c *types.BotConfig) { c.Store.Driver = "redis" }, "store.driver"},
		{"gcs without bucket", func(c *types.BotConfig) { c.Store.Driver = types.StoreGCS }, "store.bucket"},
		{"bad log level", func(c *types.BotConfig) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *types.BotConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	require.NoError(t, Validate(validConfig(), true))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Validate(cfg, true)
			require.Error(t, err)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidateDryRunNeedsNoTargets(t *testing.T) {
	cfg := validConfig()
	cfg.Slack.Workspaces = nil
	assert.NoError(t, Validate(cfg, false))
}
