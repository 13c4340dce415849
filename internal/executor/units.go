// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package executor

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

// unitsHeader is the fixed UNITS.csv column set, in order.
var unitsHeader = []string{
	"unit_id", "title", "type", "skill", "inputs", "outputs",
	"acceptance", "checkpoint", "status", "depends_on", "owner",
}

// splitList parses a ";"-separated cell into trimmed non-empty items.
func splitList(cell string) []string {
	var items []string
	for _, item := range strings.Split(cell, ";") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func joinList(items []string) string {
	return strings.Join(items, ";")
}

// LoadUnits reads UNITS.csv into rows, validating the header.
func LoadUnits(ws *workspace.Workspace) ([]types.UnitRow, error) {
	f, err := os.Open(ws.Path(workspace.FileUnits))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", workspace.FileUnits, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", workspace.FileUnits, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", workspace.FileUnits)
	}
	if len(records[0]) != len(unitsHeader) {
		return nil, fmt.Errorf("%s: want %d columns, got %d", workspace.FileUnits, len(unitsHeader), len(records[0]))
	}
	for i, col := range unitsHeader {
		if !strings.EqualFold(strings.TrimSpace(records[0][i]), col) {
			return nil, fmt.Errorf("%s: column %d is %q, want %q", workspace.FileUnits, i+1, records[0][i], col)
		}
	}

	units := make([]types.UnitRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		units = append(units, types.UnitRow{
			UnitID:     strings.TrimSpace(rec[0]),
			Title:      strings.TrimSpace(rec[1]),
			Type:       strings.TrimSpace(rec[2]),
			Skill:      strings.TrimSpace(rec[3]),
			Inputs:     splitList(rec[4]),
			Outputs:    splitList(rec[5]),
			Acceptance: strings.TrimSpace(rec[6]),
			Checkpoint: strings.TrimSpace(rec[7]),
			Status:     types.UnitStatus(strings.TrimSpace(rec[8])),
			DependsOn:  splitList(rec[9]),
			Owner:      types.UnitOwner(strings.TrimSpace(rec[10])),
		})
	}
	return units, nil
}

// SaveUnits rewrites UNITS.csv atomically. The executor is the only
// writer, so no backup rotation applies here.
func SaveUnits(ws *workspace.Workspace, units []types.UnitRow) error {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(unitsHeader); err != nil {
		return fmt.Errorf("writing units header: %w", err)
	}
	for _, u := range units {
		rec := []string{
			u.UnitID, u.Title, u.Type, u.Skill,
			joinList(u.Inputs), joinList(u.Outputs),
			u.Acceptance, u.Checkpoint, string(u.Status),
			joinList(u.DependsOn), string(u.Owner),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("writing unit %s: %w", u.UnitID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing units: %w", err)
	}

	target := ws.Path(workspace.FileUnits)
	tmp, err := os.CreateTemp(filepath.Dir(target), ".UNITS.csv.tmp*")
	if err != nil {
		return fmt.Errorf("creating temp units file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing units: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing units file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming units file: %w", err)
	}
	return nil
}

// CurrentCheckpoint returns the checkpoint of the first not-DONE unit, or
// "complete" when every unit is DONE or SKIP.
func CurrentCheckpoint(units []types.UnitRow) string {
	for _, u := range units {
		if u.Status != types.StatusDone && u.Status != types.StatusSkip {
			return u.Checkpoint
		}
	}
	return "complete"
}
