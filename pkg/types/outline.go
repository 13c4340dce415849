// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// OutlineSubsection is one H3 entry in outline/outline.yml.
type OutlineSubsection struct {
	// ID is the dotted sub_id, e.g. "4.2".
	ID string `json:"id" yaml:"id"`

	// Title is the subsection heading.
	Title string `json:"title" yaml:"title"`

	// Bullets carries structured stage-A metadata (Intent, RQ,
	// Evidence needs, Expected cites, ...).
	Bullets []string `json:"bullets,omitempty" yaml:"bullets,omitempty"`
}

// OutlineSection is one H2 chapter in outline/outline.yml.
type OutlineSection struct {
	ID          string              `json:"id" yaml:"id"`
	Title       string              `json:"title" yaml:"title"`
	Bullets     []string            `json:"bullets,omitempty" yaml:"bullets,omitempty"`
	Subsections []OutlineSubsection `json:"subsections,omitempty" yaml:"subsections,omitempty"`
}

// Outline is the approved hierarchical outline: H2 sections with H3
// subsections.
type Outline struct {
	Sections []OutlineSection `json:"sections" yaml:"sections"`
}

// MappingRow is one row of outline/mapping.tsv: a subsection-to-paper
// assignment with a short semantic rationale.
type MappingRow struct {
	SectionID    string `json:"section_id" yaml:"section_id"`
	SectionTitle string `json:"section_title" yaml:"section_title"`
	PaperID      string `json:"paper_id" yaml:"paper_id"`
	Why          string `json:"why" yaml:"why"`
}
