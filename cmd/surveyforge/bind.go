// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/surveyforge/internal/bind"
	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

var bindCmd = &cobra.Command{
	Use:   "bind",
	Short: "Select evidence bindings for every subsection",
	Long: `Bind selects, for each subsection, the bank items that best match the
subsection's brief: scored by token overlap with the research question and
axes, capped per paper, with limitation items limited to a small share.
The profile sets the selection size K and the per-subsection minimum.`,
	RunE: runBind,
}

func runBind(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	_, subs, err := loadSubsections(ws)
	if err != nil {
		return err
	}
	mapped, err := loadMapping(ws)
	if err != nil {
		return err
	}
	_, notesByID, err := loadNotes(ws)
	if err != nil {
		return err
	}

	bankItems, err := workspace.ReadJSONL[types.EvidenceItem](ws, workspace.FileEvidenceBank)
	if err != nil {
		return fmt.Errorf("loading evidence bank: %w", err)
	}
	briefs, err := workspace.ReadJSONL[types.SubsectionBrief](ws, workspace.FileSubsectionBriefs)
	if err != nil {
		return fmt.Errorf("loading subsection briefs: %w", err)
	}

	th := types.ThresholdsFor(resolveProfile(cmd, ws))
	bindings := bind.BuildAll(subs, mapped, bankItems, briefs, notesByID, th)

	written, err := workspace.WriteJSONL(ws, workspace.FileBindings, bindings)
	if err != nil {
		return err
	}
	reportWrite(written, workspace.FileBindings, len(bindings))

	for _, b := range bindings {
		if len(b.EvidenceIDs) < th.MinBindingIDs {
			fmt.Printf("  %s: %d evidence ids (minimum %d)\n", b.SubID, len(b.EvidenceIDs), th.MinBindingIDs)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(bindCmd)
}
