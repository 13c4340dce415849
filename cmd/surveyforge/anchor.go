// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/surveyforge/internal/anchor"
	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

var anchorCmd = &cobra.Command{
	Use:   "anchor",
	Short: "Distill the anchor sheet from evidence drafts",
	Long: `Anchor distills outline/evidence_drafts.jsonl into the per-subsection
anchor sheet: deduplicated, trimmed, citation-checked facts classified as
claim, number, comparison, or limitation.`,
	RunE: runAnchor,
}

func runAnchor(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	drafts, err := workspace.ReadJSONL[types.EvidencePack](ws, workspace.FileEvidenceDrafts)
	if err != nil {
		return fmt.Errorf("loading evidence drafts: %w", err)
	}
	bib, err := loadBib(ws)
	if err != nil {
		return err
	}

	sheet := anchor.Build(drafts, bib)
	written, err := workspace.WriteJSONL(ws, workspace.FileAnchorSheet, sheet)
	if err != nil {
		return err
	}
	reportWrite(written, workspace.FileAnchorSheet, len(sheet))
	return nil
}

func init() {
	rootCmd.AddCommand(anchorCmd)
}
