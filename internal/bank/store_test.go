// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bank

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

func storeFixture(t *testing.T) (*workspace.Workspace, *Store) {
	t.Helper()
	ws, err := workspace.Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	items := Build([]types.PaperNote{
		{
			PaperID: "P0001", Title: "Tool-Using Agents", Year: 2024,
			Bibkey: "Smith2024Tool", EvidenceLevel: types.LevelFulltext,
			Method:     "Splits the agent into a planner and an executor over a typed tool API.",
			KeyResults: []string{"Improves pass@1 by 12 points on the AgentBench benchmark suite."},
		},
		{
			PaperID: "P0002", Title: "Agent Memory Systems", Year: 2023,
			Bibkey: "Doe2023Memory", EvidenceLevel: types.LevelAbstract,
			SummaryBullets: []string{"Retrieval-augmented memory reduces context window pressure for agents."},
		},
	})
	if _, err := workspace.WriteJSONL(ws, workspace.FileEvidenceBank, items); err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(ws, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return ws, store
}

func TestIndexAndSearch(t *testing.T) {
	_, store := storeFixture(t)
	ctx := context.Background()

	var out bytes.Buffer
	summary, err := store.Index(ctx, &out)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if summary.Indexed != 3 {
		t.Fatalf("indexed %d items, want 3", summary.Indexed)
	}

	// FTS query.
	results, err := store.Search(ctx, QueryOptions{Query: "benchmark"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].PaperID != "P0001" {
		t.Fatalf("FTS results = %+v", results)
	}

	// Structured filters.
	results, err = store.Search(ctx, QueryOptions{ClaimType: types.ClaimMethod})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ClaimType != types.ClaimMethod {
		t.Fatalf("claim filter results = %+v", results)
	}

	results, err = store.Search(ctx, QueryOptions{PaperID: "P0002"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Bibkey != "Doe2023Memory" {
		t.Fatalf("paper filter results = %+v", results)
	}

	results, err = store.Search(ctx, QueryOptions{Tag: types.TagMemory})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].PaperID != "P0002" {
		t.Fatalf("tag filter results = %+v", results)
	}
}

func TestIndexSkipsUnchangedBank(t *testing.T) {
	_, store := storeFixture(t)
	ctx := context.Background()

	var out bytes.Buffer
	if _, err := store.Index(ctx, &out); err != nil {
		t.Fatal(err)
	}
	summary, err := store.Index(ctx, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !summary.Skipped {
		t.Error("second index run over an unchanged bank must be skipped")
	}
}

func TestExportYAML(t *testing.T) {
	ws, store := storeFixture(t)
	ctx := context.Background()

	var out bytes.Buffer
	if _, err := store.Index(ctx, &out); err != nil {
		t.Fatal(err)
	}
	if err := store.ExportYAML(ctx, QueryOptions{}); err != nil {
		t.Fatalf("ExportYAML: %v", err)
	}

	data, err := os.ReadFile(ws.Path("index/export.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("E-P0001-")) {
		t.Error("export.yaml missing evidence IDs")
	}
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	if !(QueryOptions{}).IsEmpty() {
		t.Error("zero options must be empty")
	}
	if (QueryOptions{Tag: "numbers"}).IsEmpty() {
		t.Error("tag filter must not be empty")
	}
}
