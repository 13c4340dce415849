// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bank builds the evidence bank: addressable, typed evidence
// items projected from paper notes, with content-addressed IDs, and an
// optional SQLite FTS index over the result.
package bank

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pdiddy/surveyforge/pkg/types"
)

// minSnippetLen is the qualification threshold for a normalized snippet.
const minSnippetLen = 24

// limitationBoilerplate lists meta phrases that disqualify a limitation
// snippet: these leak pipeline voice, not paper content.
var limitationBoilerplate = []string{
	"evidence level:",
	"abstract-level evidence only",
	"title-only evidence",
	"this work is mapped to:",
}

// EvidenceID computes the content-addressed item ID:
// E-<paper_id>-<first 10 hex of sha1(claim_type|snippet)>.
func EvidenceID(paperID string, claimType types.ClaimType, snippet string) string {
	sum := sha1.Sum([]byte(string(claimType) + "|" + snippet))
	return fmt.Sprintf("E-%s-%s", paperID, hex.EncodeToString(sum[:])[:10])
}

// Normalize collapses runs of whitespace into single spaces and trims.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Build projects paper notes into evidence items. Per note, candidates are
// emitted in priority order (method, key results, summary bullets,
// limitations) and a title item is added when nothing else qualifies, so
// every paper contributes at least one item. Duplicate IDs within the bank
// are suppressed.
func Build(notes []types.PaperNote) []types.EvidenceItem {
	var items []types.EvidenceItem
	seen := make(map[string]bool)

	emit := func(note types.PaperNote, claimType types.ClaimType, raw, pointer string) bool {
		snippet := Normalize(raw)
		if claimType != types.ClaimTitle && len(snippet) < minSnippetLen {
			return false
		}
		if claimType == types.ClaimLimitation && isLimitationBoilerplate(snippet) {
			return false
		}
		if snippet == "" {
			return false
		}

		id := EvidenceID(note.PaperID, claimType, snippet)
		if seen[id] {
			return false
		}
		seen[id] = true

		items = append(items, types.EvidenceItem{
			EvidenceID:    id,
			PaperID:       note.PaperID,
			Bibkey:        note.Bibkey,
			Title:         note.Title,
			Year:          note.Year,
			EvidenceLevel: note.EvidenceLevel,
			ClaimType:     claimType,
			Snippet:       snippet,
			Locator:       fmt.Sprintf("paper_notes.jsonl:paper_id=%s#%s", note.PaperID, pointer),
			Confidence:    types.ConfidenceFor(note.EvidenceLevel),
			Tags:          assignTags(snippet),
		})
		return true
	}

	for _, note := range notes {
		emitted := false
		if emit(note, types.ClaimMethod, note.Method, "method") {
			emitted = true
		}
		for i, r := range note.KeyResults {
			if emit(note, types.ClaimResult, r, fmt.Sprintf("key_results[%d]", i)) {
				emitted = true
			}
		}
		for i, s := range note.SummaryBullets {
			if emit(note, types.ClaimSummary, s, fmt.Sprintf("summary_bullets[%d]", i)) {
				emitted = true
			}
		}
		for i, l := range note.Limitations {
			if emit(note, types.ClaimLimitation, l, fmt.Sprintf("limitations[%d]", i)) {
				emitted = true
			}
		}
		if !emitted {
			emit(note, types.ClaimTitle, note.Title, "title")
		}
	}

	return items
}

func isLimitationBoilerplate(snippet string) bool {
	lower := strings.ToLower(snippet)
	for _, prefix := range limitationBoilerplate {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// tagPatterns maps each tag to the substrings that trigger it.
var tagPatterns = map[string][]string{
	types.TagEvaluation: {"benchmark", "dataset", "metric", "eval"},
	types.TagTooling:    {"tool", "api", "mcp", "schema"},
	types.TagMemory:     {"memory", "retrieval", "rag", "cache"},
	types.TagSecurity:   {"attack", "injection", "jailbreak", "sandbox"},
}

// tagOrder keeps tag output deterministic.
var tagOrder = []string{
	types.TagEvaluation, types.TagTooling, types.TagMemory,
	types.TagSecurity, types.TagNumbers,
}

// assignTags applies the substring heuristics to a normalized snippet.
// The numbers tag fires on any digit token.
func assignTags(snippet string) []string {
	lower := strings.ToLower(snippet)
	present := make(map[string]bool)
	for tag, patterns := range tagPatterns {
		for _, p := range patterns {
			if strings.Contains(lower, p) {
				present[tag] = true
				break
			}
		}
	}
	if strings.ContainsAny(snippet, "0123456789") {
		present[types.TagNumbers] = true
	}

	var tags []string
	for _, tag := range tagOrder {
		if present[tag] {
			tags = append(tags, tag)
		}
	}
	return tags
}
