// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PaperCluster groups mapped papers under a shared label for one H3.
type PaperCluster struct {
	Label    string   `json:"label" yaml:"label"`
	PaperIDs []string `json:"paper_ids" yaml:"paper_ids"`
}

// ParagraphPlanItem is one planned paragraph in a subsection brief.
type ParagraphPlanItem struct {
	// Para is the 1-based paragraph number.
	Para int `json:"para" yaml:"para"`

	// Intent names the paragraph's job, e.g. "scope-and-thesis".
	Intent string `json:"intent" yaml:"intent"`

	// Focus describes what the paragraph should cover.
	Focus string `json:"focus" yaml:"focus"`

	// UseClusters names the clusters the paragraph should draw from.
	UseClusters []string `json:"use_clusters,omitempty" yaml:"use_clusters,omitempty"`

	// Policy flags weak-evidence paragraphs, e.g. "provisional" when no
	// fulltext-level evidence backs the subsection.
	Policy string `json:"policy,omitempty" yaml:"policy,omitempty"`
}

// ScopeRule constrains what a subsection may and may not cover, derived
// from GOAL.md hints.
type ScopeRule struct {
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Notes   string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// SubsectionBrief is the per-H3 planning record in
// outline/subsection_briefs.jsonl.
type SubsectionBrief struct {
	SubID string `json:"sub_id" yaml:"sub_id"`
	Title string `json:"title" yaml:"title"`

	// RQ is the research question the subsection answers.
	RQ string `json:"rq" yaml:"rq"`

	// Axes lists up to five decision-relevant comparison dimensions.
	Axes []string `json:"axes" yaml:"axes"`

	// Clusters groups the mapped papers (≥ 2 clusters of ≥ 2 papers).
	Clusters []PaperCluster `json:"clusters" yaml:"clusters"`

	ParagraphPlan []ParagraphPlanItem `json:"paragraph_plan" yaml:"paragraph_plan"`

	// EvidenceLevelSummary counts mapped papers by evidence level.
	EvidenceLevelSummary map[EvidenceLevel]int `json:"evidence_level_summary" yaml:"evidence_level_summary"`

	ScopeRule ScopeRule `json:"scope_rule" yaml:"scope_rule"`
}

// ChapterBrief is the per-H2 record in outline/chapter_briefs.jsonl.
type ChapterBrief struct {
	SectionID string `json:"section_id" yaml:"section_id"`
	Title     string `json:"title" yaml:"title"`

	// Throughline is the 2-6 bullet narrative arc of the chapter.
	Throughline []string `json:"throughline" yaml:"throughline"`

	// KeyContrasts names the contrasts the chapter should draw out.
	KeyContrasts []string `json:"key_contrasts,omitempty" yaml:"key_contrasts,omitempty"`

	// LeadParagraphPlan plans the chapter lead (2-3 bullets).
	LeadParagraphPlan []string `json:"lead_paragraph_plan" yaml:"lead_paragraph_plan"`

	// BridgeTerms are recurring terms that stitch subsections together.
	BridgeTerms []string `json:"bridge_terms,omitempty" yaml:"bridge_terms,omitempty"`
}

// HookType classifies an anchor fact.
type HookType string

const (
	HookQuant      HookType = "quant"
	HookEval       HookType = "eval"
	HookLimitation HookType = "limitation"
)

// Anchor is a short citation-backed fact intended to appear in prose as-is.
type Anchor struct {
	HookType HookType `json:"hook_type" yaml:"hook_type"`

	// Text is trimmed to 280 chars; no ellipsis is appended.
	Text string `json:"text" yaml:"text"`

	// Citations are all of the form @bibkey and present in ref.bib.
	Citations []string `json:"citations" yaml:"citations"`

	PaperID    string `json:"paper_id,omitempty" yaml:"paper_id,omitempty"`
	EvidenceID string `json:"evidence_id,omitempty" yaml:"evidence_id,omitempty"`
	Pointer    string `json:"pointer,omitempty" yaml:"pointer,omitempty"`
}

// AnchorSheetEntry is the per-H3 record in outline/anchor_sheet.jsonl,
// carrying up to 12 anchors.
type AnchorSheetEntry struct {
	SubID   string   `json:"sub_id" yaml:"sub_id"`
	Anchors []Anchor `json:"anchors" yaml:"anchors"`
}
