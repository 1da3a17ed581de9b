// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, match and post new papers once",
	Long: `Run performs one pass: fetch every configured source, drop records older
than the lookback window, match keywords, skip papers already posted, and
post the rest. A paper is marked as posted only after every notification
target accepted it, so failures are retried on the next run.

With --dry-run posts are printed to stdout and nothing is recorded.`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "print posts instead of sending them and leave the seen store untouched")
	runCmd.Flags().Int("max-posts", 0, "cap posts for this run (default: max_posts from config, 0 = unlimited)")

	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	maxPosts, _ := cmd.Flags().GetInt("max-posts")
	if maxPosts < 0 {
		return fmt.Errorf("--max-posts must not be negative")
	}

	if err := validate(!dryRun); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	p, store, err := buildPipeline(ctx, botCfg, runOptions{DryRun: dryRun, MaxPosts: maxPosts, Out: os.Stdout})
	if err != nil {
		return err
	}
	defer store.Close()

	sum, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d paper(s) failed to post", sum.Failed)
	}
	return nil
}
