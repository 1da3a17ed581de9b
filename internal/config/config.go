// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads and validates the paperbot configuration.
//
// Values come, in increasing precedence, from built-in defaults, the YAML
// config file, and PAPERBOT_* environment variables (dots in keys become
// underscores). Secret files fill credentials that are still empty after
// that.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/paperbot/internal/logging"
	"github.com/pdiddy/paperbot/internal/match"
	"github.com/pdiddy/paperbot/internal/secrets"
	"github.com/pdiddy/paperbot/pkg/types"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PAPERBOT"

// Name is the config file base name searched for when no file is given.
const Name = "paperbot"

// Error reports an invalid configuration value.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Message
}

// legacyEnv binds environment names used by earlier deployments of the bot.
var legacyEnv = map[string]string{
	"translation.deepl.api_key":    "DEEPL_API_TOKEN",
	"translation.microsoft.key":    "MS_TRANSLATE_KEY",
	"translation.microsoft.region": "MS_TRANSLATE_REGION",
	"summary.api_key":              "GEMINI_API_TOKEN",
}

// New returns a viper instance with defaults, config search paths and
// environment bindings. configFile overrides the search when set.
func New(configFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
	return v
}

// SetDefaults registers the default value of every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("keywords_file", "keyword.yml")
	v.SetDefault("sources", []map[string]any{
		{"name": "arxiv", "genres": []string{"cs.CV"}},
		{"name": "mdpi", "genres": []string{"remotesensing"}},
	})
	v.SetDefault("lookback", 48*time.Hour)
	v.SetDefault("max_posts", 0)

	v.SetDefault("openalex.email", "")
	v.SetDefault("openalex.days_back", 2)
	v.SetDefault("openalex.search_keywords", false)

	v.SetDefault("matching.variable_steps", match.DefaultSteps)

	v.SetDefault("translation.source_lang", "EN")
	v.SetDefault("translation.target_lang", "JA")
	v.SetDefault("translation.translate_titles", false)
	v.SetDefault("translation.deepl.api_key", "")
	v.SetDefault("translation.microsoft.key", "")
	v.SetDefault("translation.microsoft.region", "")

	v.SetDefault("summary.api_key", "")
	v.SetDefault("summary.model", "gemini-2.5-flash")
	v.SetDefault("summary.fallback_model", "gemini-2.5-flash-lite")
	v.SetDefault("summary.prompt", "")
	v.SetDefault("summary.marker", "")
	v.SetDefault("summary.min_interval", time.Duration(0))

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_ids", []int64{})

	v.SetDefault("store.driver", string(types.StoreSQLite))
	v.SetDefault("store.path", filepath.Join("data", "seen.db"))
	v.SetDefault("store.bucket", "")
	v.SetDefault("store.prefix", "seen/")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.user_agent", "paperbot")

	v.SetDefault("schedule.cron", "0 9 * * *")
	v.SetDefault("schedule.timezone", "")

	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("serve.token", "")
}

// Read loads the config file. A missing file is not an error; the returned
// path is empty in that case.
func Read(v *viper.Viper) (string, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes v into a BotConfig, fills credentials from secret files and
// legacy environment variables, and normalizes source names. It does not
// validate; call Validate.
func Load(v *viper.Viper, s secrets.Set) (types.BotConfig, error) {
	var cfg types.BotConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}

	if len(cfg.Slack.Workspaces) == 0 {
		cfg.Slack.Workspaces = LegacyWorkspaces(os.Environ())
	}
	ApplySecrets(&cfg, s)

	for i, sc := range cfg.Sources {
		if src, err := types.ParseSource(string(sc.Source)); err == nil {
			cfg.Sources[i].Source = src
		}
	}
	cfg.Store.Driver = types.StoreDriver(strings.ToLower(string(cfg.Store.Driver)))
	return cfg, nil
}

// ApplySecrets fills empty credentials in cfg from s.
func ApplySecrets(cfg *types.BotConfig, s secrets.Set) {
	if len(s) == 0 {
		return
	}
	s.Fill(&cfg.Translation.DeepL.APIKey, "deepl-api-key")
	s.Fill(&cfg.Translation.Microsoft.Key, "ms-translate-key")
	s.Fill(&cfg.Translation.Microsoft.Region, "ms-translate-region")
	s.Fill(&cfg.Summary.APIKey, "gemini-api-key")
	s.Fill(&cfg.Telegram.Token, "telegram-token")
	s.Fill(&cfg.Serve.Token, "serve-token")
	s.Fill(&cfg.OpenAlex.Email, "openalex-email")
	for i := range cfg.Slack.Workspaces {
		ws := &cfg.Slack.Workspaces[i]
		s.Fill(&ws.Token, "slack-token-"+ws.Name)
	}
}

// LegacyWorkspaces builds Slack workspaces from SLACK_API_TOKEN<suffix> and
// POST_CHANNEL<suffix> pairs in environ. Channels are comma-separated.
// Workspaces are ordered by suffix, numerically where the suffix is a number:
// "", 1, 2, 10.
func LegacyWorkspaces(environ []string) []types.Workspace {
	const tokenPrefix, channelPrefix = "SLACK_API_TOKEN", "POST_CHANNEL"

	tokens := make(map[string]string)
	channels := make(map[string]string)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		switch {
		case strings.HasPrefix(key, tokenPrefix):
			tokens[strings.TrimPrefix(key, tokenPrefix)] = value
		case strings.HasPrefix(key, channelPrefix):
			channels[strings.TrimPrefix(key, channelPrefix)] = value
		}
	}

	suffixes := make([]string, 0, len(tokens))
	for suffix := range tokens {
		suffixes = append(suffixes, suffix)
	}
	sort.Slice(suffixes, func(i, j int) bool { return suffixLess(suffixes[i], suffixes[j]) })

	var out []types.Workspace
	for _, suffix := range suffixes {
		ws := types.Workspace{Name: "workspace" + suffix, Token: tokens[suffix]}
		for _, ch := range strings.Split(channels[suffix], ",") {
			if ch = strings.TrimSpace(ch); ch != "" {
				ws.Channels = append(ws.Channels, ch)
			}
		}
		out = append(out, ws)
	}
	return out
}

// suffixLess orders numeric suffixes by value ahead of other suffixes. The
// empty suffix sorts first.
func suffixLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case a == "" || b == "":
		return a == "" && b != ""
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

// Validate checks cfg and returns every problem found, joined. When
// requireTargets is set at least one notification target must be
// configured.
func Validate(cfg types.BotConfig, requireTargets bool) error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &Error{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(cfg.KeywordsFile) == "" {
		add("keywords_file", "is required")
	}

	if len(cfg.Sources) == 0 {
		add("sources", "at least one source is required")
	}
	for i, sc := range cfg.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		if _, err := types.ParseSource(string(sc.Source)); err != nil {
			add(field+".name", "%v", err)
		}
		if len(sc.Genres) == 0 {
			add(field+".genres", "at least one genre is required")
		}
		for j, g := range sc.Genres {
			if strings.TrimSpace(g) == "" {
				add(fmt.Sprintf("%s.genres[%d]", field, j), "is empty")
			}
		}
	}

	if cfg.Lookback < 0 {
		add("lookback", "must not be negative")
	}
	if cfg.MaxPosts < 0 {
		add("max_posts", "must not be negative")
	}
	if cfg.OpenAlex.DaysBack < 0 {
		add("openalex.days_back", "must not be negative")
	}
	if _, err := match.ParseSteps(cfg.Matching.VariableSteps); err != nil {
		add("matching.variable_steps", "%v", err)
	}
	if strings.TrimSpace(cfg.Translation.TargetLang) == "" {
		add("translation.target_lang", "is required")
	}
	if cfg.Summary.MinInterval < 0 {
		add("summary.min_interval", "must not be negative")
	}

	for i, ws := range cfg.Slack.Workspaces {
		field := fmt.Sprintf("slack.workspaces[%d]", i)
		if ws.Token == "" {
			add(field+".token", "is required (or provide secret slack-token-%s)", ws.Name)
		}
		if len(ws.Channels) == 0 {
			add(field+".channels", "at least one channel is required")
		}
	}
	if cfg.Telegram.Token != "" && len(cfg.Telegram.ChatIDs) == 0 {
		add("telegram.chat_ids", "at least one chat id is required when a token is set")
	}
	if requireTargets && len(cfg.Slack.Workspaces) == 0 && !cfg.Telegram.Enabled() {
		add("slack.workspaces", "no notification target configured")
	}

	switch cfg.Store.Driver {
	case types.StoreSQLite, "":
		if cfg.Store.Path == "" {
			add("store.path", "is required for the sqlite driver")
		}
	case types.StoreGCS:
		if cfg.Store.Bucket == "" {
			add("store.bucket", "is required for the gcs driver")
		}
	case types.StoreMemory:
	default:
		add("store.driver", "unknown driver %q (want sqlite, gcs or memory)", cfg.Store.Driver)
	}

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		add("log.level", "%v", err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "text", "json":
	default:
		add("log.format", "unknown format %q (want text or json)", cfg.Log.Format)
	}

	return errors.Join(errs...)
}
