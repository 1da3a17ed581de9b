// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match [text...]",
	Short: "Show which keywords match a piece of text",
	Long: `Match runs the configured keyword matcher against the given text (or stdin
when no arguments are given) and prints the matching keywords. Use it to
check how fixed and variable keywords behave before editing keyword.yml.`,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	m, err := loadMatcher(botCfg)
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	hits := m.MatchText(text)
	if len(hits) == 0 {
		fmt.Fprintln(os.Stderr, "no keywords matched")
		return nil
	}
	for _, kw := range hits {
		fmt.Println(kw)
	}
	return nil
}
