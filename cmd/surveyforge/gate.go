// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/surveyforge/internal/gate"
	"github.com/pdiddy/surveyforge/internal/workspace"
)

var gateCmd = &cobra.Command{
	Use:   "gate <skill>",
	Short: "Run the quality gate for one skill",
	Long: `Gate checks the artifacts a skill produced against its contract:
citation hygiene, mapping coverage, evidence provenance, binding minima,
pack completeness, section contracts, draft structure, audit verdicts, and
LaTeX build health.

Every run rewrites output/QUALITY_GATE.md with the findings and the
suggested next action. The exit code is non-zero when any issue is found.

Skills: outline, citations, verify-citations, map-papers, paper-notes,
evidence-drafts, evidence-bindings, writer-packs, write-sections,
merge-draft, audit, latex-build.`,
	Args: cobra.ExactArgs(1),
	RunE: runGate,
}

func runGate(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	strict, _ := cmd.Flags().GetBool("strict")
	outputs, _ := cmd.Flags().GetStringSlice("output")

	issues, err := gate.Run(args[0], ws, outputs, strict, resolveProfile(cmd, ws))
	if err != nil {
		return err
	}

	if len(issues) == 0 {
		fmt.Printf("PASS: %s\n", args[0])
		return nil
	}

	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", issue.Code, issue.Message)
	}
	fmt.Fprintf(os.Stderr, "Report written to %s\n", workspace.FileQualityGate)
	return fmt.Errorf("gate %s failed with %d issue(s)", args[0], len(issues))
}

func init() {
	gateCmd.Flags().Bool("strict", false, "record strict mode in the gate report")
	gateCmd.Flags().StringSlice("output", nil, "declared output to require before gating (repeatable, prefix ? for optional)")

	rootCmd.AddCommand(gateCmd)
}
