// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperbot/internal/seenstore"
)

var seenCmd = &cobra.Command{
	Use:   "seen",
	Short: "Inspect and maintain the store of posted papers",
	Long: `Seen works on the store that records which papers were already posted
(store.driver: sqlite, gcs or memory). Identifiers are paper URLs, or a
content hash for records without one.`,
}

var seenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently posted papers, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		return withStore(func(ctx context.Context, s seenstore.Store) error {
			entries, err := s.List(ctx, limit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "POSTED\tSOURCE\tTITLE\tID")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.PostedAt.Local().Format(time.DateTime), e.Source, e.Title, e.ID)
			}
			return w.Flush()
		})
	},
}

var seenCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of recorded papers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, s seenstore.Store) error {
			n, err := s.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		})
	},
}

var seenForgetCmd = &cobra.Command{
	Use:   "forget [ids...]",
	Short: "Remove papers so they are posted again on the next run",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, s seenstore.Store) error {
			for _, id := range args {
				ok, err := s.Remove(ctx, id)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(os.Stderr, "not found: %s\n", id)
					continue
				}
				fmt.Printf("forgot %s\n", id)
			}
			return nil
		})
	},
}

var seenPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete entries posted before a cutoff",
	Long: `Prune deletes entries older than --older-than. A pruned paper is posted
again if a source still lists it within the lookback window, so keep the
cutoff well beyond lookback.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if olderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		if botCfg.Lookback > 0 && olderThan <= botCfg.Lookback {
			return fmt.Errorf("--older-than %s must exceed lookback %s", olderThan, botCfg.Lookback)
		}

		return withStore(func(ctx context.Context, s seenstore.Store) error {
			n, err := s.Prune(ctx, time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			logger.Info("pruned seen entries", "removed", n, "older_than", olderThan)
			fmt.Printf("pruned %d entr(ies)\n", n)
			return nil
		})
	},
}

func init() {
	seenListCmd.Flags().Int("limit", 50, "maximum entries to list (0 = all)")
	seenListCmd.Flags().Bool("json", false, "output entries as JSON")
	seenPruneCmd.Flags().Duration("older-than", 90*24*time.Hour, "delete entries posted longer ago than this")

	seenCmd.AddCommand(seenListCmd, seenCountCmd, seenForgetCmd, seenPruneCmd)
	rootCmd.AddCommand(seenCmd)
}

// withStore opens the configured store, runs fn and closes the store.
func withStore(fn func(ctx context.Context, s seenstore.Store) error) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := seenstore.Open(ctx, botCfg.Store)
	if err != nil {
		return fmt.Errorf("opening seen store: %w", err)
	}
	defer s.Close()
	return fn(ctx, s)
}
