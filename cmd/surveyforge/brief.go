// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/surveyforge/internal/brief"
	"github.com/pdiddy/surveyforge/internal/workspace"
)

var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Build subsection and chapter briefs from the outline",
	Long: `Brief derives the per-subsection writing brief (research question,
comparison axes, paper clusters, paragraph plan, scope rule) and the
per-chapter brief (throughline, key contrasts, bridge terms) from the
outline, the paper mapping, and the paper notes.`,
	RunE: runBrief,
}

func runBrief(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	o, subs, err := loadSubsections(ws)
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

	goal, err := ws.LoadGoal()
	if err != nil {
		return err
	}
	q, err := ws.LoadQueries()
	if err != nil {
		return err
	}

	briefs := brief.BuildSubsectionBriefs(subs, mapped, notesByID, goal, q.Exclude)
	written, err := workspace.WriteJSONL(ws, workspace.FileSubsectionBriefs, briefs)
	if err != nil {
		return err
	}
	reportWrite(written, workspace.FileSubsectionBriefs, len(briefs))

	chapters := brief.BuildChapterBriefs(o, briefs)
	written, err = workspace.WriteJSONL(ws, workspace.FileChapterBriefs, chapters)
	if err != nil {
		return err
	}
	reportWrite(written, workspace.FileChapterBriefs, len(chapters))
	return nil
}

func init() {
	rootCmd.AddCommand(briefCmd)
}
