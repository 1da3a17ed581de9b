// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by every collaborator that
// makes network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperbot/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SourceConfig maps one source to the genres fetched from it. Genres must
// be non-empty.
type SourceConfig struct {
	Source Source   `json:"name" yaml:"name" mapstructure:"name"`
	Genres []string `json:"genres" yaml:"genres" mapstructure:"genres"`
}

// OpenAlexConfig holds settings for the OpenAlex works fetcher.
type OpenAlexConfig struct {
	// Email is sent as the mailto parameter for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`

	// DaysBack is how far back from today publications are requested (default 2).
	DaysBack int `json:"days_back" yaml:"days_back" mapstructure:"days_back"`

	// SearchKeywords sends keyword texts as an OR search to narrow results.
	SearchKeywords bool `json:"search_keywords" yaml:"search_keywords" mapstructure:"search_keywords"`
}

// MatchingConfig holds keyword matching settings.
type MatchingConfig struct {
	// VariableSteps is the ordered list of normalization steps applied to
	// variable keywords and paper text (default lowercase, punctuation, plural).
	VariableSteps []string `json:"variable_steps" yaml:"variable_steps" mapstructure:"variable_steps"`
}

// DeepLConfig holds DeepL credentials.
type DeepLConfig struct {
	APIKey string `json:"-" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// MicrosoftConfig holds Microsoft Translator credentials.
type MicrosoftConfig struct {
	Key    string `json:"-" yaml:"key,omitempty" mapstructure:"key"`
	Region string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`
}

// TranslationConfig holds settings for the translator chain.
type TranslationConfig struct {
	SourceLang      string          `json:"source_lang" yaml:"source_lang" mapstructure:"source_lang"`
	TargetLang      string          `json:"target_lang" yaml:"target_lang" mapstructure:"target_lang"`
	TranslateTitles bool            `json:"translate_titles" yaml:"translate_titles" mapstructure:"translate_titles"`
	DeepL           DeepLConfig     `json:"deepl" yaml:"deepl" mapstructure:"deepl"`
	Microsoft       MicrosoftConfig `json:"microsoft" yaml:"microsoft" mapstructure:"microsoft"`
}

// SummaryConfig holds settings for the Gemini summarizer. An empty APIKey
// disables summarization.
type SummaryConfig struct {
	APIKey        string        `json:"-" yaml:"api_key,omitempty" mapstructure:"api_key"`
	Model         string        `json:"model" yaml:"model" mapstructure:"model"`
	FallbackModel string        `json:"fallback_model" yaml:"fallback_model" mapstructure:"fallback_model"`
	Prompt        string        `json:"prompt" yaml:"prompt" mapstructure:"prompt"`
	Marker        string        `json:"marker" yaml:"marker" mapstructure:"marker"`
	MinInterval   time.Duration `json:"min_interval" yaml:"min_interval" mapstructure:"min_interval"`
}

// Enabled reports whether a summarizer should be built.
func (c SummaryConfig) Enabled() bool { return c.APIKey != "" }

// Workspace is one Slack credential and the channels it posts to.
type Workspace struct {
	Name     string   `json:"name" yaml:"name" mapstructure:"name"`
	Token    string   `json:"-" yaml:"token,omitempty" mapstructure:"token"`
	Channels []string `json:"channels" yaml:"channels" mapstructure:"channels"`
}

// SlackConfig lists the Slack workspaces to post to, in order.
type SlackConfig struct {
	Workspaces []Workspace `json:"workspaces" yaml:"workspaces" mapstructure:"workspaces"`
}

// TelegramConfig holds the optional Telegram notifier settings.
type TelegramConfig struct {
	Token   string  `json:"-" yaml:"token,omitempty" mapstructure:"token"`
	ChatIDs []int64 `json:"chat_ids" yaml:"chat_ids" mapstructure:"chat_ids"`
}

// Enabled reports whether a Telegram notifier should be built.
func (c TelegramConfig) Enabled() bool { return c.Token != "" && len(c.ChatIDs) > 0 }

// StoreDriver selects the SeenSet backend.
type StoreDriver string

const (
	StoreSQLite StoreDriver = "sqlite"
	StoreGCS    StoreDriver = "gcs"
	StoreMemory StoreDriver = "memory"
)

// StoreConfig holds SeenSet persistence settings.
type StoreConfig struct {
	Driver StoreDriver `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Path is the SQLite database file (driver sqlite).
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Bucket and Prefix locate seen entries in Cloud Storage (driver gcs).
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty" mapstructure:"bucket"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty" mapstructure:"prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// ScheduleConfig holds the in-process scheduler settings.
type ScheduleConfig struct {
	Cron     string `json:"cron" yaml:"cron" mapstructure:"cron"`
	Timezone string `json:"timezone" yaml:"timezone" mapstructure:"timezone"`
}

// ServeConfig holds the HTTP trigger settings.
type ServeConfig struct {
	Addr  string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Token string `json:"-" yaml:"token,omitempty" mapstructure:"token"`
}

// BotConfig groups every setting of a paperbot run.
type BotConfig struct {
	KeywordsFile string         `json:"keywords_file" yaml:"keywords_file" mapstructure:"keywords_file"`
	Sources      []SourceConfig `json:"sources" yaml:"sources" mapstructure:"sources"`

	// Lookback drops records published before now minus Lookback. Zero disables.
	Lookback time.Duration `json:"lookback" yaml:"lookback" mapstructure:"lookback"`

	// MaxPosts caps notifications per run. Zero means unlimited.
	MaxPosts int `json:"max_posts" yaml:"max_posts" mapstructure:"max_posts"`

	OpenAlex    OpenAlexConfig    `json:"openalex" yaml:"openalex" mapstructure:"openalex"`
	Matching    MatchingConfig    `json:"matching" yaml:"matching" mapstructure:"matching"`
	Translation TranslationConfig `json:"translation" yaml:"translation" mapstructure:"translation"`
	Summary     SummaryConfig     `json:"summary" yaml:"summary" mapstructure:"summary"`
	Slack       SlackConfig       `json:"slack" yaml:"slack" mapstructure:"slack"`
	Telegram    TelegramConfig    `json:"telegram" yaml:"telegram" mapstructure:"telegram"`
	Store       StoreConfig       `json:"store" yaml:"store" mapstructure:"store"`
	Log         LogConfig         `json:"log" yaml:"log" mapstructure:"log"`
	HTTP        HTTPConfig        `json:"http" yaml:"http" mapstructure:"http"`
	Schedule    ScheduleConfig    `json:"schedule" yaml:"schedule" mapstructure:"schedule"`
	Serve       ServeConfig       `json:"serve" yaml:"serve" mapstructure:"serve"`
}
