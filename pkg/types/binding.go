// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// BindingCompliance summarizes what the binder selected for one H3.
type BindingCompliance struct {
	SelectedTotal   int            `json:"selected_total" yaml:"selected_total"`
	ByClaimType     map[string]int `json:"by_claim_type" yaml:"by_claim_type"`
	ByEvidenceLevel map[string]int `json:"by_evidence_level" yaml:"by_evidence_level"`
}

// EvidenceBinding is the per-H3 record in outline/evidence_bindings.jsonl:
// the K evidence items selected for a subsection under diversity and
// budget constraints.
type EvidenceBinding struct {
	SubID string `json:"sub_id" yaml:"sub_id"`

	// PaperIDs are the papers mapped to this subsection.
	PaperIDs []string `json:"paper_ids" yaml:"paper_ids"`

	// MappedBibkeys is the union of bibkeys of all mapped papers.
	MappedBibkeys []string `json:"mapped_bibkeys" yaml:"mapped_bibkeys"`

	// Bibkeys is the subset whose evidence was actually selected.
	Bibkeys []string `json:"bibkeys" yaml:"bibkeys"`

	// EvidenceIDs are the selected bank items (≤ K, ≤ 3 per paper,
	// ≤ 3 limitations).
	EvidenceIDs []string `json:"evidence_ids" yaml:"evidence_ids"`

	Compliance BindingCompliance `json:"compliance" yaml:"compliance"`
}

// ComparisonCard is a citation-validated A-vs-B contrast handed to the
// writer inside a context pack.
type ComparisonCard struct {
	Axis        string        `json:"axis" yaml:"axis"`
	ALabel      string        `json:"a_label" yaml:"a_label"`
	BLabel      string        `json:"b_label" yaml:"b_label"`
	AHighlights []PackSnippet `json:"a_highlights,omitempty" yaml:"a_highlights,omitempty"`
	BHighlights []PackSnippet `json:"b_highlights,omitempty" yaml:"b_highlights,omitempty"`
	WritePrompt string        `json:"write_prompt,omitempty" yaml:"write_prompt,omitempty"`
}

// MustUse states the integer minima and boolean obligations the writer
// must satisfy for one subsection.
type MustUse struct {
	Anchors     int `json:"anchors" yaml:"anchors"`
	Comparisons int `json:"comparisons" yaml:"comparisons"`
	Limitations int `json:"limitations" yaml:"limitations"`

	RequireCitedNumericIfAvailable     bool `json:"require_cited_numeric_if_available" yaml:"require_cited_numeric_if_available"`
	RequireMultiCiteSynthesisParagraph bool `json:"require_multi_cite_synthesis_paragraph" yaml:"require_multi_cite_synthesis_paragraph"`
	ThesisRequired                     bool `json:"thesis_required" yaml:"thesis_required"`
}

// PackStats counts how much source material survived pack assembly,
// per source category.
type PackStats struct {
	Raw        int `json:"raw" yaml:"raw"`
	Considered int `json:"considered" yaml:"considered"`
	Kept       int `json:"kept" yaml:"kept"`
	Dropped    int `json:"dropped" yaml:"dropped"`
}

// WriterContextPack is the complete writing contract for one H3: allowed
// citations at four scopes, anchor facts, comparison cards, evaluation and
// limitation material, and must-use minima.
type WriterContextPack struct {
	SubID string `json:"sub_id" yaml:"sub_id"`
	Title string `json:"title" yaml:"title"`

	RQ     string   `json:"rq" yaml:"rq"`
	Thesis string   `json:"thesis,omitempty" yaml:"thesis,omitempty"`
	Axes   []string `json:"axes" yaml:"axes"`

	ParagraphPlan []ParagraphPlanItem `json:"paragraph_plan" yaml:"paragraph_plan"`

	ChapterThroughline  []string `json:"chapter_throughline,omitempty" yaml:"chapter_throughline,omitempty"`
	ChapterKeyContrasts []string `json:"chapter_key_contrasts,omitempty" yaml:"chapter_key_contrasts,omitempty"`

	AllowedBibkeysSelected []string `json:"allowed_bibkeys_selected" yaml:"allowed_bibkeys_selected"`
	AllowedBibkeysMapped   []string `json:"allowed_bibkeys_mapped" yaml:"allowed_bibkeys_mapped"`
	AllowedBibkeysChapter  []string `json:"allowed_bibkeys_chapter" yaml:"allowed_bibkeys_chapter"`
	AllowedBibkeysGlobal   []string `json:"allowed_bibkeys_global,omitempty" yaml:"allowed_bibkeys_global,omitempty"`

	EvidenceIDs []string `json:"evidence_ids" yaml:"evidence_ids"`

	AnchorFacts        []Anchor         `json:"anchor_facts" yaml:"anchor_facts"`
	ComparisonCards    []ComparisonCard `json:"comparison_cards" yaml:"comparison_cards"`
	EvaluationProtocol []PackSnippet    `json:"evaluation_protocol" yaml:"evaluation_protocol"`
	LimitationHooks    []PackSnippet    `json:"limitation_hooks" yaml:"limitation_hooks"`

	MustUse MustUse `json:"must_use" yaml:"must_use"`

	DoNotRepeatPhrases []string `json:"do_not_repeat_phrases" yaml:"do_not_repeat_phrases"`

	PackWarnings []string             `json:"pack_warnings,omitempty" yaml:"pack_warnings,omitempty"`
	PackStats    map[string]PackStats `json:"pack_stats" yaml:"pack_stats"`
}
