// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package executor schedules pipeline units from UNITS.csv: it picks the
// first runnable unit, resolves human approvals, runs skill scripts as
// child processes, applies the quality gate in strict mode, and logs
// every transition to STATUS.md.
package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pdiddy/surveyforge/internal/gate"
	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

// Runner executes one skill against the workspace. The default runner
// spawns the skill's entry script; tests substitute their own.
type Runner interface {
	Run(ctx context.Context, skill string, ws *workspace.Workspace) error
}

// ScriptRunner runs <skillsDir>/<skill>/scripts/run (or run.py through
// python3) with the workspace as working directory.
type ScriptRunner struct {
	// SkillsDir is relative to the workspace root.
	SkillsDir string

	// Out receives the child's stdout and stderr.
	Out io.Writer
}

func (r ScriptRunner) Run(ctx context.Context, skill string, ws *workspace.Workspace) error {
	dir := r.SkillsDir
	if dir == "" {
		dir = ".codex/skills"
	}
	base := filepath.Join(ws.Dir, filepath.FromSlash(dir), skill, "scripts")

	var cmd *exec.Cmd
	if entry := filepath.Join(base, "run"); isExecutable(entry) {
		cmd = exec.CommandContext(ctx, entry)
	} else if entry := filepath.Join(base, "run.py"); fileExists(entry) {
		cmd = exec.CommandContext(ctx, "python3", entry)
	} else {
		return fmt.Errorf("skill %s has no entry script under %s", skill, base)
	}

	cmd.Dir = ws.Dir
	if r.Out != nil {
		cmd.Stdout = r.Out
		cmd.Stderr = r.Out
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("skill %s: %w", skill, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode()&0o111 != 0
}

// Executor drives one workspace's unit table.
type Executor struct {
	WS      *workspace.Workspace
	Profile types.Profile
	Strict  bool

	// Allow auto-approves the named checkpoints for HUMAN units.
	Allow map[string]bool

	Runner Runner

	// Progress receives one line per transition, for CLI output.
	Progress io.Writer
}

// Result describes one Step outcome.
type Result struct {
	UnitID string
	Skill  string
	Owner  types.UnitOwner
	Status types.UnitStatus

	// Issues holds the gate findings when a strict gate blocked the unit.
	Issues []types.QualityIssue

	// Reason is the human-readable cause of a BLOCKED status.
	Reason string
}

// Step runs the first eligible unit (status TODO or BLOCKED with all
// dependencies DONE/SKIP). It returns nil when no unit is eligible.
func (e *Executor) Step(ctx context.Context) (*Result, error) {
	units, err := LoadUnits(e.WS)
	if err != nil {
		return nil, err
	}

	idx := pickUnit(units)
	if idx < 0 {
		return nil, nil
	}
	unit := &units[idx]

	var res *Result
	switch unit.Owner {
	case types.OwnerHuman:
		res, err = e.runHuman(unit)
	default:
		res, err = e.runScript(ctx, unit, units)
	}
	if err != nil {
		return nil, err
	}

	if err := SaveUnits(e.WS, units); err != nil {
		return nil, err
	}

	line := fmt.Sprintf("%s %s -> %s", unit.UnitID, unit.Skill, unit.Status)
	if res.Reason != "" {
		line += " (" + res.Reason + ")"
	}
	if err := e.WS.AppendStatus(line, CurrentCheckpoint(units)); err != nil {
		return nil, err
	}
	e.progressf("%s\n", line)
	return res, nil
}

// Run steps until nothing is eligible or a unit blocks. It returns the
// results in execution order.
func (e *Executor) Run(ctx context.Context) ([]Result, error) {
	var results []Result
	for {
		res, err := e.Step(ctx)
		if err != nil {
			return results, err
		}
		if res == nil {
			return results, nil
		}
		results = append(results, *res)
		if res.Status == types.StatusBlocked {
			return results, nil
		}
	}
}

// pickUnit returns the index of the first unit with status TODO or
// BLOCKED whose dependencies are all DONE or SKIP, or -1.
func pickUnit(units []types.UnitRow) int {
	status := make(map[string]types.UnitStatus, len(units))
	for _, u := range units {
		status[u.UnitID] = u.Status
	}

	for i, u := range units {
		if u.Status != types.StatusTodo && u.Status != types.StatusBlocked {
			continue
		}
		ready := true
		for _, dep := range u.DependsOn {
			if !status[dep].Satisfied() {
				ready = false
				break
			}
		}
		if ready {
			return i
		}
	}
	return -1
}

// runHuman resolves a HUMAN unit from DECISIONS.md approvals or the
// caller's checkpoint allow-list.
func (e *Executor) runHuman(unit *types.UnitRow) (*Result, error) {
	approvals, err := e.WS.Approvals()
	if err != nil {
		return nil, err
	}

	res := &Result{UnitID: unit.UnitID, Skill: unit.Skill, Owner: unit.Owner}
	if approvals[unit.Checkpoint] || e.Allow[unit.Checkpoint] {
		unit.Status = types.StatusDone
	} else {
		unit.Status = types.StatusBlocked
		res.Reason = fmt.Sprintf("awaiting approval for %s in %s", unit.Checkpoint, workspace.FileDecisions)
	}
	res.Status = unit.Status
	return res, nil
}

// runScript executes a SCRIPT unit: child process, output presence check,
// and (strict mode) the skill's quality gate.
func (e *Executor) runScript(ctx context.Context, unit *types.UnitRow, units []types.UnitRow) (*Result, error) {
	res := &Result{UnitID: unit.UnitID, Skill: unit.Skill, Owner: unit.Owner}

	unit.Status = types.StatusDoing
	if err := SaveUnits(e.WS, units); err != nil {
		return nil, err
	}

	runner := e.Runner
	if runner == nil {
		runner = ScriptRunner{Out: e.Progress}
	}
	if err := runner.Run(ctx, unit.Skill, e.WS); err != nil {
		unit.Status = types.StatusBlocked
		res.Status = unit.Status
		res.Reason = err.Error()
		return res, nil
	}

	if missing := missingOutputs(e.WS, unit.Outputs); len(missing) > 0 {
		unit.Status = types.StatusBlocked
		res.Status = unit.Status
		res.Reason = fmt.Sprintf("outputs missing after run: %v", missing)
		return res, nil
	}

	if e.Strict {
		issues, err := gate.Run(unit.Skill, e.WS, unit.Outputs, true, e.Profile)
		if err != nil {
			return nil, err
		}
		if len(issues) > 0 {
			unit.Status = types.StatusBlocked
			res.Status = unit.Status
			res.Issues = issues
			res.Reason = fmt.Sprintf("gate failed with %d issues, see %s", len(issues), workspace.FileQualityGate)
			return res, nil
		}
	}

	unit.Status = types.StatusDone
	res.Status = unit.Status
	return res, nil
}

// missingOutputs lists declared non-optional outputs that are absent or
// empty after a run.
func missingOutputs(ws *workspace.Workspace, outputs []string) []string {
	var missing []string
	for _, out := range outputs {
		if len(out) > 0 && out[0] == '?' {
			continue
		}
		if !ws.Exists(out) {
			missing = append(missing, out)
		}
	}
	return missing
}

func (e *Executor) progressf(format string, args ...any) {
	if e.Progress != nil {
		fmt.Fprintf(e.Progress, format, args...)
	}
}
