// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/pdiddy/surveyforge/internal/bibtex"
	"github.com/pdiddy/surveyforge/internal/outline"
	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

// Shared artifact loaders for the pipeline subcommands. Each returns a
// wrapped error naming the artifact so failures point at the missing or
// malformed file rather than the command.

func loadSubsections(ws *workspace.Workspace) (*types.Outline, []outline.Subsection, error) {
	o, err := outline.Load(ws.Path(workspace.FileOutline))
	if err != nil {
		return nil, nil, fmt.Errorf("loading outline: %w", err)
	}
	return o, outline.Subsections(o), nil
}

func loadMapping(ws *workspace.Workspace) (map[string][]string, error) {
	rows, err := outline.LoadMapping(ws.Path(workspace.FileMapping))
	if err != nil {
		return nil, fmt.Errorf("loading mapping: %w", err)
	}
	return outline.MappingBySub(rows), nil
}

func loadNotes(ws *workspace.Workspace) ([]types.PaperNote, map[string]types.PaperNote, error) {
	notes, err := workspace.ReadJSONL[types.PaperNote](ws, workspace.FilePaperNotes)
	if err != nil {
		return nil, nil, fmt.Errorf("loading paper notes: %w", err)
	}
	byID := make(map[string]types.PaperNote, len(notes))
	for _, n := range notes {
		byID[n.PaperID] = n
	}
	return notes, byID, nil
}

func loadBib(ws *workspace.Workspace) (bibtex.Index, error) {
	src, err := os.ReadFile(ws.Path(workspace.FileRefBib))
	if err != nil {
		return nil, fmt.Errorf("loading bibliography: %w", err)
	}
	idx, dups, err := bibtex.BuildIndex(string(src))
	if err != nil {
		return nil, fmt.Errorf("parsing bibliography: %w", err)
	}
	if len(dups) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d duplicated bibkeys in %s: %v\n",
			len(dups), workspace.FileRefBib, dups)
	}
	return idx, nil
}

// reportWrite prints the standard outcome line for a generated artifact,
// distinguishing frozen skips from fresh writes.
func reportWrite(written bool, rel string, count int) {
	if written {
		fmt.Printf("Wrote %d records to %s\n", count, rel)
	} else {
		fmt.Printf("Skipped %s: frozen by %s marker\n", rel, workspace.FreezeSuffix)
	}
}
