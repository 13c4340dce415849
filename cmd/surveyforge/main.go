// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the surveyforge CLI.
// Implements the pipeline surface: unit execution, quality gates,
// evidence bank operations, and writer pack assembly.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the surveyforge CLI.
var rootCmd = &cobra.Command{
	Use:   "surveyforge",
	Short: "Evidence-bound survey manuscript pipeline",
	Long: `surveyforge drives a survey manuscript workspace from collected papers to
a LaTeX-ready draft. The writing skills author the prose; the CLI owns
everything deterministic: the unit scheduler, quality gates, the evidence
bank and its index, bindings, anchor sheets, and writer context packs.

Each pipeline stage is a subcommand: run, gate, bank, brief, bind, anchor,
pack, validate, and status.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./surveyforge.yaml or ~/.config/surveyforge/config.yaml)")
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory (contains UNITS.csv, queries.md)")
	rootCmd.PersistentFlags().String("profile", "", "draft profile override: default, lite, survey, or deep (default: queries.md)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("surveyforge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "surveyforge"))
		}
	}

	viper.SetEnvPrefix("SURVEYFORGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// openWorkspace resolves the --workspace flag against the config and
// opens the workspace directory.
func openWorkspace(cmd *cobra.Command) (*workspace.Workspace, error) {
	dir, _ := cmd.Flags().GetString("workspace")
	if dir == "" || dir == "." {
		if v := viper.GetString("workspace"); v != "" {
			dir = v
		}
	}
	return workspace.Open(dir)
}

// resolveProfile prefers the --profile flag, then queries.md, then the
// default profile.
func resolveProfile(cmd *cobra.Command, ws *workspace.Workspace) types.Profile {
	if flag, _ := cmd.Flags().GetString("profile"); flag != "" {
		return types.ParseProfile(flag)
	}
	q, err := ws.LoadQueries()
	if err != nil {
		return types.ProfileDefault
	}
	if q.DraftProfile == "" {
		return types.ProfileDefault
	}
	return q.DraftProfile
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
