// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/surveyforge/internal/bank"
	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Manage the evidence bank (build, index, search, export)",
	Long: `Bank manages the evidence bank: the flattened, deduplicated pool of
citable facts extracted from paper notes. The JSONL file under papers/ is
the artifact of record; the SQLite index under index/ is a derived view
for spot-checking bindings.`,
}

// --- build subcommand ---

var bankBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build papers/evidence_bank.jsonl from paper notes",
	Long: `Build flattens papers/paper_notes.jsonl into evidence items: one item
per key result, comparison, and limitation, with stable ids, provenance
locators, and topic tags. Boilerplate limitations are dropped. A frozen
bank (evidence_bank.jsonl.refined.ok) is left untouched.`,
	RunE: runBankBuild,
}

func runBankBuild(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	notes, _, err := loadNotes(ws)
	if err != nil {
		return err
	}

	items := bank.Build(notes)
	written, err := workspace.WriteJSONL(ws, workspace.FileEvidenceBank, items)
	if err != nil {
		return err
	}
	reportWrite(written, workspace.FileEvidenceBank, len(items))
	return nil
}

// --- index subcommand ---

var bankIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load the evidence bank into the SQLite index",
	Long: `Index loads papers/evidence_bank.jsonl into index/evidence.db with FTS5
full-text search over snippets. An unchanged bank file is skipped.`,
	RunE: runBankIndex,
}

func runBankIndex(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	store, err := bankStore(cmd, ws)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Index(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Skipped {
		fmt.Println("Index up to date; bank unchanged.")
	} else {
		fmt.Printf("Indexed %d evidence items.\n", summary.Indexed)
	}
	return nil
}

// --- search subcommand ---

var bankSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Query the evidence bank with full-text search and filters",
	Long: `Search runs FTS5 full-text search over evidence snippets, optionally
filtered by claim type, tag, or paper. Results carry the provenance
locator back to the source note.`,
	RunE: runBankSearch,
}

func runBankSearch(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	store, err := bankStore(cmd, ws)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := bankQueryOpts(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --type, --tag, or --paper")
	}

	items, err := store.Search(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatBankResults(items, jsonOutput)
}

func formatBankResults(items []types.EvidenceItem, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(items) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-12s  %-50s  %-18s  %-6s\n",
		"Rank", "Claim", "Snippet", "Bibkey", "Level")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 98))

	for i, item := range items {
		snippet := item.Snippet
		if len(snippet) > 50 {
			snippet = snippet[:47] + "..."
		}
		bibkey := item.Bibkey
		if len(bibkey) > 18 {
			bibkey = bibkey[:15] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-12s  %-50s  %-18s  %-6s\n",
			i+1, item.ClaimType, snippet, bibkey, item.EvidenceLevel)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(items))
	return nil
}

// --- export subcommand ---

var bankExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the evidence bank to YAML or JSON",
	Long: `Export writes the bank (or a filtered subset) to index/export.yaml or
index/export.json. Supports the same filter flags as search.`,
	RunE: runBankExport,
}

func runBankExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	store, err := bankStore(cmd, ws)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := bankQueryOpts(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to index/export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func bankStore(cmd *cobra.Command, ws *workspace.Workspace) (*bank.Store, error) {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return bank.NewStore(ws, maxResults)
}

func bankQueryOpts(cmd *cobra.Command, args []string) bank.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	claimType, _ := cmd.Flags().GetString("type")
	tag, _ := cmd.Flags().GetString("tag")
	paperID, _ := cmd.Flags().GetString("paper")
	limit, _ := cmd.Flags().GetInt("limit")

	return bank.QueryOptions{
		Query:      queryText,
		ClaimType:  types.ClaimType(claimType),
		Tag:        tag,
		PaperID:    paperID,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	bankCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Search flags.
	bankSearchCmd.Flags().String("query", "", "full-text search query over snippets")
	bankSearchCmd.Flags().String("type", "", "filter by claim type: method, result, summary, limitation, title")
	bankSearchCmd.Flags().String("tag", "", "filter by topic tag")
	bankSearchCmd.Flags().String("paper", "", "filter by paper ID")
	bankSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	bankSearchCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	bankExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	bankExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	bankExportCmd.Flags().String("type", "", "filter by claim type for partial export")
	bankExportCmd.Flags().String("tag", "", "filter by tag for partial export")
	bankExportCmd.Flags().String("paper", "", "filter by paper ID for partial export")
	bankExportCmd.Flags().Int("limit", 0, "maximum items to export (0 = all)")

	// Wire subcommands.
	bankCmd.AddCommand(bankBuildCmd)
	bankCmd.AddCommand(bankIndexCmd)
	bankCmd.AddCommand(bankSearchCmd)
	bankCmd.AddCommand(bankExportCmd)

	rootCmd.AddCommand(bankCmd)
}
