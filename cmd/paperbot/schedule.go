// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/paperbot/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Stay resident and run on a cron schedule",
	Long: `Schedule keeps the process running and performs a pass each time the
cron expression in schedule.cron fires (default "0 9 * * *", local time or
schedule.timezone). A firing that overlaps a run in progress is skipped.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().String("cron", "", "cron expression (overrides schedule.cron)")
	scheduleCmd.Flags().Bool("now", false, "also run once immediately at startup")

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	if err := validate(true); err != nil {
		return err
	}
	spec := botCfg.Schedule.Cron
	if s, _ := cmd.Flags().GetString("cron"); s != "" {
		spec = s
	}
	now, _ := cmd.Flags().GetBool("now")

	ctx, stop := signalContext()
	defer stop()

	p, store, err := buildPipeline(ctx, botCfg, runOptions{})
	if err != nil {
		return err
	}
	defer store.Close()

	runner := schedule.NewRunner(p.Run, logger)
	sched, err := schedule.New(spec, botCfg.Schedule.Timezone, runner, logger)
	if err != nil {
		return err
	}

	if now {
		runner.Run(ctx)
	}
	sched.Start(ctx)

	<-ctx.Done()
	logger.Info("shutting down")
	sched.Stop()
	return nil
}
