// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/surveyforge/internal/pack"
	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Assemble writer context packs",
	Long: `Pack assembles one writer context pack per subsection: the allowed
citation sets (selected, mapped, chapter, global), trimmed anchor facts,
comparison cards, evaluation and limitation snippets, must-use minima, and
the do-not-repeat phrase list. Packs are the complete writing contract a
section writer sees.`,
	RunE: runPack,
}

func runPack(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	_, subs, err := loadSubsections(ws)
	if err != nil {
		return err
	}
	bib, err := loadBib(ws)
	if err != nil {
		return err
	}

	briefs, err := workspace.ReadJSONL[types.SubsectionBrief](ws, workspace.FileSubsectionBriefs)
	if err != nil {
		return fmt.Errorf("loading subsection briefs: %w", err)
	}
	chapters, err := workspace.ReadJSONL[types.ChapterBrief](ws, workspace.FileChapterBriefs)
	if err != nil {
		return fmt.Errorf("loading chapter briefs: %w", err)
	}
	bindings, err := workspace.ReadJSONL[types.EvidenceBinding](ws, workspace.FileBindings)
	if err != nil {
		return fmt.Errorf("loading bindings: %w", err)
	}
	sheet, err := workspace.ReadJSONL[types.AnchorSheetEntry](ws, workspace.FileAnchorSheet)
	if err != nil {
		return fmt.Errorf("loading anchor sheet: %w", err)
	}
	drafts, err := workspace.ReadJSONL[types.EvidencePack](ws, workspace.FileEvidenceDrafts)
	if err != nil {
		return fmt.Errorf("loading evidence drafts: %w", err)
	}

	th := types.ThresholdsFor(resolveProfile(cmd, ws))
	if viper.IsSet("pack.global_threshold") {
		th.GlobalThreshold = viper.GetInt("pack.global_threshold")
	}
	packs := pack.Build(pack.Inputs{
		Subs:     subs,
		Briefs:   briefs,
		Chapters: chapters,
		Bindings: bindings,
		Sheet:    sheet,
		Drafts:   drafts,
		Bib:      bib,
	}, th)

	written, err := workspace.WriteJSONL(ws, workspace.FileWriterPacks, packs)
	if err != nil {
		return err
	}
	reportWrite(written, workspace.FileWriterPacks, len(packs))

	for _, p := range packs {
		for _, w := range p.PackWarnings {
			fmt.Printf("  %s: %s\n", p.SubID, w)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(packCmd)
}
