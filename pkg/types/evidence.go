// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ClaimType categorizes an evidence item by the kind of claim it supports.
type ClaimType string

const (
	ClaimMethod     ClaimType = "method"
	ClaimResult     ClaimType = "result"
	ClaimSummary    ClaimType = "summary"
	ClaimLimitation ClaimType = "limitation"
	ClaimTitle      ClaimType = "title"
)

// Confidence grades an evidence item by the strength of its source material.
// Derived from EvidenceLevel: fulltext → high, abstract → medium, title → low.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceFor maps an evidence level to its derived confidence grade.
func ConfidenceFor(level EvidenceLevel) Confidence {
	switch level {
	case LevelFulltext:
		return ConfidenceHigh
	case LevelAbstract:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Evidence tags assigned by substring heuristics over the snippet.
const (
	TagEvaluation = "evaluation"
	TagTooling    = "tooling"
	TagMemory     = "memory"
	TagSecurity   = "security"
	TagNumbers    = "numbers"
)

// EvidenceItem is an addressable, citable fact extracted from a paper note.
// evidence_id is content-addressed over (claim_type, snippet) so an unchanged
// note regenerates the same ID.
type EvidenceItem struct {
	// EvidenceID has the form E-<paper_id>-<10 hex>.
	EvidenceID string `json:"evidence_id" yaml:"evidence_id"`

	PaperID string `json:"paper_id" yaml:"paper_id"`
	Bibkey  string `json:"bibkey" yaml:"bibkey"`
	Title   string `json:"title" yaml:"title"`
	Year    int    `json:"year" yaml:"year"`

	EvidenceLevel EvidenceLevel `json:"evidence_level" yaml:"evidence_level"`
	ClaimType     ClaimType     `json:"claim_type" yaml:"claim_type"`

	// Snippet is the whitespace-normalized fact text (≥ 24 chars).
	Snippet string `json:"snippet" yaml:"snippet"`

	// Locator records provenance as source plus pointer, e.g.
	// "paper_notes.jsonl:paper_id=P0001#key_results[0]".
	Locator string `json:"locator" yaml:"locator"`

	Confidence Confidence `json:"confidence" yaml:"confidence"`

	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// PackSnippet is one cited excerpt inside an evidence pack, carrying
// provenance back to the bank.
type PackSnippet struct {
	Text       string   `json:"text" yaml:"text"`
	Citations  []string `json:"citations,omitempty" yaml:"citations,omitempty"`
	PaperID    string   `json:"paper_id,omitempty" yaml:"paper_id,omitempty"`
	EvidenceID string   `json:"evidence_id,omitempty" yaml:"evidence_id,omitempty"`
	Source     string   `json:"source,omitempty" yaml:"source,omitempty"`
	Pointer    string   `json:"pointer,omitempty" yaml:"pointer,omitempty"`
}

// Comparison is an axis-anchored A-vs-B contrast inside an evidence pack.
type Comparison struct {
	Axis        string        `json:"axis" yaml:"axis"`
	ALabel      string        `json:"a_label" yaml:"a_label"`
	BLabel      string        `json:"b_label" yaml:"b_label"`
	AHighlights []PackSnippet `json:"a_highlights,omitempty" yaml:"a_highlights,omitempty"`
	BHighlights []PackSnippet `json:"b_highlights,omitempty" yaml:"b_highlights,omitempty"`
	WritePrompt string        `json:"write_prompt,omitempty" yaml:"write_prompt,omitempty"`
}

// EvidencePack is the per-H3 record in outline/evidence_drafts.jsonl: the
// richer draft structure the anchor sheet and writer packs project from.
type EvidencePack struct {
	SubID string `json:"sub_id" yaml:"sub_id"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	DefinitionsSetup    []PackSnippet `json:"definitions_setup" yaml:"definitions_setup"`
	ClaimCandidates     []PackSnippet `json:"claim_candidates" yaml:"claim_candidates"`
	ConcreteComparisons []Comparison  `json:"concrete_comparisons" yaml:"concrete_comparisons"`
	EvaluationProtocol  []PackSnippet `json:"evaluation_protocol" yaml:"evaluation_protocol"`
	FailuresLimitations []PackSnippet `json:"failures_limitations" yaml:"failures_limitations"`
}
