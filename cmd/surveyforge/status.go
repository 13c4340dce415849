// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/surveyforge/internal/executor"
	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the unit table and current checkpoint",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	if name, err := ws.PipelineName(); err == nil {
		fmt.Printf("Pipeline:   %s\n", name)
	}
	fmt.Printf("Profile:    %s\n", resolveProfile(cmd, ws))

	units, err := executor.LoadUnits(ws)
	if err != nil {
		return err
	}
	fmt.Printf("Checkpoint: %s\n\n", executor.CurrentCheckpoint(units))

	fmt.Printf("%-8s  %-20s  %-7s  %-8s  %-10s  %s\n",
		"Unit", "Skill", "Owner", "Status", "Checkpoint", "Depends on")
	fmt.Println(strings.Repeat("-", 80))
	for _, u := range units {
		fmt.Printf("%-8s  %-20s  %-7s  %-8s  %-10s  %s\n",
			u.UnitID, u.Skill, u.Owner, u.Status, u.Checkpoint, strings.Join(u.DependsOn, ","))
	}

	done, blocked := 0, 0
	for _, u := range units {
		switch u.Status {
		case types.StatusDone, types.StatusSkip:
			done++
		case types.StatusBlocked:
			blocked++
		}
	}
	fmt.Printf("\n%d/%d units done", done, len(units))
	if blocked > 0 {
		fmt.Printf(", %d blocked", blocked)
	}
	fmt.Println()

	tail, _ := cmd.Flags().GetInt("log")
	if tail > 0 {
		printStatusTail(ws, tail)
	}
	return nil
}

// printStatusTail shows the last n run-log lines from STATUS.md.
func printStatusTail(ws *workspace.Workspace, n int) {
	data, err := os.ReadFile(ws.Path(workspace.FileStatus))
	if err != nil {
		return
	}
	var entries []string
	inLog := false
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") {
			inLog = strings.EqualFold(trimmed, "## Run log")
			continue
		}
		if inLog && strings.HasPrefix(trimmed, "- ") {
			entries = append(entries, trimmed)
		}
	}
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	if len(entries) > 0 {
		fmt.Println("\nRecent runs:")
		for _, e := range entries {
			fmt.Println(e)
		}
	}
}

func init() {
	statusCmd.Flags().Int("log", 0, "also show the last N run-log entries from STATUS.md")

	rootCmd.AddCommand(statusCmd)
}
