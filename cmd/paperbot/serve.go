// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperbot/internal/schedule"
	"github.com/pdiddy/paperbot/internal/trigger"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an HTTP trigger for runs",
	Long: `Serve listens on serve.addr and starts a pass on POST /run, returning the
run summary as JSON. Set serve.token (or the serve-token secret) to require
a bearer token. With --cron the built-in scheduler runs alongside; both
share one lock so runs never overlap.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides serve.addr)")
	serveCmd.Flags().Bool("cron", false, "also run on schedule.cron")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := validate(true); err != nil {
		return err
	}
	addr := botCfg.Serve.Addr
	if a, _ := cmd.Flags().GetString("addr"); a != "" {
		addr = a
	}
	withCron, _ := cmd.Flags().GetBool("cron")

	ctx, stop := signalContext()
	defer stop()

	p, store, err := buildPipeline(ctx, botCfg, runOptions{})
	if err != nil {
		return err
	}
	defer store.Close()

	runner := schedule.NewRunner(p.Run, logger)
	if withCron {
		sched, err := schedule.New(botCfg.Schedule.Cron, botCfg.Schedule.Timezone, runner, logger)
		if err != nil {
			return err
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	h := &trigger.Handler{Runner: runner, Token: botCfg.Serve.Token, Logger: logger}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	if botCfg.Serve.Token == "" {
		logger.Warn("serve.token is empty; POST /run is unauthenticated")
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
