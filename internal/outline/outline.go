// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline loads the approved outline (outline.yml) and the
// subsection-to-paper mapping (mapping.tsv) and provides ordering and
// naming helpers shared by the briefs, binder, pack builder, and gates.
package outline

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/surveyforge/pkg/types"
)

// Subsection is a flattened H3 with its parent chapter attached.
type Subsection struct {
	SubID        string
	Title        string
	SectionID    string
	SectionTitle string
	Bullets      []string
}

// Load parses outline.yml.
func Load(path string) (*types.Outline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading outline: %w", err)
	}
	var doc struct {
		Sections []types.OutlineSection `yaml:"sections"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		// Some workspaces store the section list at the top level.
		var sections []types.OutlineSection
		if err2 := yaml.Unmarshal(data, &sections); err2 != nil {
			return nil, fmt.Errorf("parsing outline %s: %w", path, err)
		}
		doc.Sections = sections
	}
	return &types.Outline{Sections: doc.Sections}, nil
}

// Subsections flattens the outline into H3 entries in outline order.
func Subsections(o *types.Outline) []Subsection {
	var subs []Subsection
	for _, sec := range o.Sections {
		for _, sub := range sec.Subsections {
			subs = append(subs, Subsection{
				SubID:        sub.ID,
				Title:        sub.Title,
				SectionID:    sec.ID,
				SectionTitle: sec.Title,
				Bullets:      sub.Bullets,
			})
		}
	}
	return subs
}

// SubIDLess orders dotted sub_ids numerically chunk by chunk ("4.2" before
// "4.10"); non-numeric chunks sort after numeric ones.
func SubIDLess(a, b string) bool {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		switch {
		case aerr == nil && berr == nil:
			if an != bn {
				return an < bn
			}
		case aerr == nil:
			return true
		case berr == nil:
			return false
		default:
			if as[i] != bs[i] {
				return as[i] < bs[i]
			}
		}
	}
	return len(as) < len(bs)
}

// SortSubIDs sorts dotted sub_ids in place using SubIDLess.
func SortSubIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return SubIDLess(ids[i], ids[j]) })
}

// Slug converts a sub_id into its section file stem: non-alphanumerics
// become underscores and the result is prefixed with "S" ("4.1" → "S4_1").
func Slug(subID string) string {
	var sb strings.Builder
	sb.WriteByte('S')
	for _, r := range subID {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// BodyFile returns the workspace-relative body file for an H3.
func BodyFile(subID string) string {
	return "sections/" + Slug(subID) + ".md"
}

// LeadFile returns the workspace-relative chapter lead file for an H2.
func LeadFile(sectionID string) string {
	return "sections/" + Slug(sectionID) + "_lead.md"
}

// Bullet returns the remainder of the first bullet with the given prefix
// (case-insensitive, colon optional in the caller's prefix), or "".
func Bullet(bullets []string, prefix string) string {
	for _, b := range bullets {
		trimmed := strings.TrimSpace(b)
		if len(trimmed) >= len(prefix) && strings.EqualFold(trimmed[:len(prefix)], prefix) {
			return strings.TrimSpace(strings.TrimPrefix(trimmed[len(prefix):], ":"))
		}
	}
	return ""
}

// LoadMapping reads mapping.tsv (section_id, section_title, paper_id, why).
// A header row is skipped when present.
func LoadMapping(path string) ([]types.MappingRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping: %w", err)
	}

	var rows []types.MappingRow
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 4 {
			return nil, fmt.Errorf("mapping %s line %d: want 4 tab-separated columns, got %d", path, i+1, len(cols))
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(cols[0]), "section_id") {
			continue
		}
		rows = append(rows, types.MappingRow{
			SectionID:    strings.TrimSpace(cols[0]),
			SectionTitle: strings.TrimSpace(cols[1]),
			PaperID:      strings.TrimSpace(cols[2]),
			Why:          strings.TrimSpace(cols[3]),
		})
	}
	return rows, nil
}

// MappingBySub groups mapped paper_ids by sub_id, preserving row order
// and dropping duplicate assignments.
func MappingBySub(rows []types.MappingRow) map[string][]string {
	bySub := make(map[string][]string)
	seen := make(map[string]bool)
	for _, r := range rows {
		k := r.SectionID + "\x00" + r.PaperID
		if seen[k] {
			continue
		}
		seen[k] = true
		bySub[r.SectionID] = append(bySub[r.SectionID], r.PaperID)
	}
	return bySub
}

// PaperSubCounts returns, per paper_id, the number of distinct subsections
// it is mapped to.
func PaperSubCounts(rows []types.MappingRow) map[string]int {
	subs := make(map[string]map[string]bool)
	for _, r := range rows {
		if subs[r.PaperID] == nil {
			subs[r.PaperID] = make(map[string]bool)
		}
		subs[r.PaperID][r.SectionID] = true
	}
	counts := make(map[string]int, len(subs))
	for p, s := range subs {
		counts[p] = len(s)
	}
	return counts
}
