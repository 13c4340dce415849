// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EvidenceLevel records the strongest source material available for a paper:
// full text beats abstract beats title-only.
type EvidenceLevel string

const (
	LevelFulltext EvidenceLevel = "fulltext"
	LevelAbstract EvidenceLevel = "abstract"
	LevelTitle    EvidenceLevel = "title"
)

// Valid reports whether the level is one of the three known values.
func (l EvidenceLevel) Valid() bool {
	return l == LevelFulltext || l == LevelAbstract || l == LevelTitle
}

// NotePriority marks papers that deserve extra attention during drafting.
type NotePriority string

const (
	PriorityHigh   NotePriority = "high"
	PriorityNormal NotePriority = "normal"
)

// Paper holds the immutable post-dedupe metadata for one paper in the
// workspace. paper_id is stable within a workspace (P0001, P0002, ...).
type Paper struct {
	// PaperID is the stable workspace identifier in P%04d form.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Year is the publication year.
	Year int `json:"year" yaml:"year"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// URL is the canonical landing page for the paper.
	URL string `json:"url" yaml:"url"`

	// ArxivID is the arXiv identifier, when the paper came from arXiv.
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// DOI is the DOI, when known.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Abstract is the paper abstract, when available.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Categories lists source taxonomy categories (e.g. arXiv classes).
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// PDFURL points at the downloadable PDF, when known.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`
}

// PaperNote is the per-paper record in papers/paper_notes.jsonl. Notes are
// produced upstream; the core consumes them to build the evidence bank,
// briefs, and bindings.
type PaperNote struct {
	PaperID string `json:"paper_id" yaml:"paper_id"`
	Title   string `json:"title" yaml:"title"`
	Year    int    `json:"year" yaml:"year"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// Bibkey is the BibTeX citation key chosen during note generation.
	// Unique across all notes in a workspace.
	Bibkey string `json:"bibkey" yaml:"bibkey"`

	Authors  []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Abstract string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// SummaryBullets are short summary statements about the paper.
	SummaryBullets []string `json:"summary_bullets,omitempty" yaml:"summary_bullets,omitempty"`

	// Method is a short description of the paper's approach.
	Method string `json:"method,omitempty" yaml:"method,omitempty"`

	// KeyResults lists concrete findings, preferably quantitative.
	KeyResults []string `json:"key_results,omitempty" yaml:"key_results,omitempty"`

	// Limitations lists acknowledged weaknesses or open problems.
	Limitations []string `json:"limitations,omitempty" yaml:"limitations,omitempty"`

	// EvidenceLevel is the strongest material the note was written from.
	EvidenceLevel EvidenceLevel `json:"evidence_level" yaml:"evidence_level"`

	// FulltextPath is the local path to extracted full text, when present.
	FulltextPath string `json:"fulltext_path,omitempty" yaml:"fulltext_path,omitempty"`

	Priority NotePriority `json:"priority,omitempty" yaml:"priority,omitempty"`

	// MappedSections lists the sub_ids this paper was mapped to.
	MappedSections []string `json:"mapped_sections,omitempty" yaml:"mapped_sections,omitempty"`
}
