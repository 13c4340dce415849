// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/surveyforge/internal/executor"
	"github.com/pdiddy/surveyforge/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute pipeline units from UNITS.csv",
	Long: `Run picks the first eligible unit (TODO or BLOCKED with all dependencies
satisfied) and executes it: HUMAN units resolve against DECISIONS.md
approvals, SCRIPT units spawn the skill's entry script. With --strict every
SCRIPT unit must also pass its quality gate before it is marked DONE.

Without --step, run keeps stepping until a unit blocks or the table is
complete. Every transition is appended to STATUS.md.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	strict, _ := cmd.Flags().GetBool("strict")
	if !cmd.Flags().Changed("strict") && viper.IsSet("strict") {
		strict = viper.GetBool("strict")
	}
	step, _ := cmd.Flags().GetBool("step")
	allowList, _ := cmd.Flags().GetStringSlice("allow")

	allow := make(map[string]bool, len(allowList))
	for _, cp := range allowList {
		allow[cp] = true
	}

	exec := &executor.Executor{
		WS:       ws,
		Profile:  resolveProfile(cmd, ws),
		Strict:   strict,
		Allow:    allow,
		Runner:   executor.ScriptRunner{Out: os.Stderr},
		Progress: os.Stdout,
	}

	if step {
		res, err := exec.Step(context.Background())
		if err != nil {
			return err
		}
		if res == nil {
			fmt.Println("No eligible units.")
			return nil
		}
		return reportBlocked(*res)
	}

	results, err := exec.Run(context.Background())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No eligible units.")
		return nil
	}
	return reportBlocked(results[len(results)-1])
}

// reportBlocked turns a blocked final unit into a command error so the
// exit code reflects the pipeline state.
func reportBlocked(res executor.Result) error {
	if res.Status != types.StatusBlocked {
		return nil
	}
	for _, issue := range res.Issues {
		fmt.Fprintf(os.Stderr, "  [%s] %s\n", issue.Code, issue.Message)
	}
	return fmt.Errorf("unit %s blocked: %s", res.UnitID, res.Reason)
}

func init() {
	runCmd.Flags().Bool("step", false, "execute at most one unit")
	runCmd.Flags().Bool("strict", false, "require the quality gate to pass before marking units DONE")
	runCmd.Flags().StringSlice("allow", nil, "checkpoints to auto-approve for HUMAN units (repeatable)")

	rootCmd.AddCommand(runCmd)
}
