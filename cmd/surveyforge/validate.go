// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/surveyforge/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check unit table, skill catalog, and artifact flow consistency",
	Long: `Validate cross-checks the workspace before a run: PIPELINE.lock.md is
present, UNITS.csv parses, every SCRIPT skill has a complete SKILL.md,
declared inputs are explained in the skill docs, and every output either
feeds another unit or lands in a terminal sink.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	issues := validator.Validate(ws)
	if len(issues) == 0 {
		fmt.Println("PASS: workspace is consistent")
		return nil
	}

	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", issue.Code, issue.Message)
	}
	return fmt.Errorf("validation failed with %d issue(s)", len(issues))
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
