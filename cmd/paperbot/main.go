// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperbot CLI.
//
// paperbot fetches new papers from arXiv, MDPI and OpenAlex, keeps the ones
// matching the configured keywords, and posts them to Slack and Telegram
// with a summary or translated abstract. Run it once from cron (run), keep
// it resident with its own cron schedule (schedule), or expose an HTTP
// trigger (serve).
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperbot/internal/config"
	"github.com/pdiddy/paperbot/internal/logging"
	"github.com/pdiddy/paperbot/internal/secrets"
	"github.com/pdiddy/paperbot/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	v          *viper.Viper
	initErr    error
	configUsed string

	botCfg types.BotConfig
	logger = slog.Default()
)

// rootCmd is the base command for the paperbot CLI.
var rootCmd = &cobra.Command{
	Use:   "paperbot",
	Short: "Post newly published papers matching your keywords to Slack",
	Long: `paperbot polls arXiv RSS, MDPI RSS and the OpenAlex works API for papers in
the configured categories, matches titles and abstracts against a keyword
list, and posts each new match once to the configured Slack workspaces and
Telegram chats. Descriptions are Gemini summaries when available, otherwise
DeepL or Microsoft translations of the abstract.

Configuration comes from paperbot.yaml, PAPERBOT_* environment variables,
a .env file and the .secrets/ directory.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paperbot.yaml or ~/.config/paperbot/paperbot.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of secret files")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().String("keywords", "", "keyword file (overrides keywords_file)")
}

// initConfig loads the dotenv file and the config file into v. Errors are
// reported by loadConfig so commands that need no config still run.
func initConfig() {
	envFile, _ := rootCmd.PersistentFlags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			initErr = fmt.Errorf("loading %s: %w", envFile, err)
			return
		}
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	v = config.New(cfgFile)
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("keywords_file", rootCmd.PersistentFlags().Lookup("keywords"))

	configUsed, initErr = config.Read(v)
}

// loadConfig decodes the configuration, fills secrets and sets up logging.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if initErr != nil {
		return initErr
	}

	dir, _ := cmd.Flags().GetString("secrets-dir")
	s, err := secrets.Load(dir, logger)
	if err != nil {
		return err
	}

	botCfg, err = config.Load(v, s)
	if err != nil {
		return err
	}

	logger, err = logging.New(botCfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if configUsed != "" {
		logger.Debug("using config file", "path", configUsed)
	}
	if names := s.Names(); len(names) > 0 {
		logger.Debug("loaded secrets", "names", names)
	}
	return nil
}

// validate checks botCfg. requireTargets is set for commands that post.
func validate(requireTargets bool) error {
	if err := config.Validate(botCfg, requireTargets); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
