// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibtex

import (
	"fmt"
	"strings"

	"github.com/pdiddy/surveyforge/pkg/types"
)

// superscripts maps unicode superscript runes to their plain equivalents,
// wrapped in \textsuperscript by EscapeField.
var superscripts = map[rune]string{
	'⁰': "0", '¹': "1", '²': "2", '³': "3", '⁴': "4",
	'⁵': "5", '⁶': "6", '⁷': "7", '⁸': "8", '⁹': "9",
	'⁺': "+", '⁻': "-", 'ⁿ': "n",
}

// escaped lists the LaTeX special characters escaped outside URLs.
var escaped = map[rune]string{
	'&': `\&`, '%': `\%`, '#': `\#`, '_': `\_`, '$': `\$`,
}

// EscapeField prepares a value for a BibTeX field: LaTeX specials are
// escaped and unicode superscripts rewritten to \textsuperscript{...}.
// Consecutive superscript runes collapse into a single group.
func EscapeField(s string) string {
	var sb strings.Builder
	var super strings.Builder

	flush := func() {
		if super.Len() > 0 {
			sb.WriteString(`\textsuperscript{` + super.String() + `}`)
			super.Reset()
		}
	}

	for _, r := range s {
		if plain, ok := superscripts[r]; ok {
			super.WriteString(plain)
			continue
		}
		flush()
		if esc, ok := escaped[r]; ok {
			sb.WriteString(esc)
		} else {
			sb.WriteRune(r)
		}
	}
	flush()
	return sb.String()
}

// CleanTitle strips braces from a title so downstream parsers do not
// break on nested groups; escaping is applied separately.
func CleanTitle(title string) string {
	title = strings.ReplaceAll(title, "{", "")
	title = strings.ReplaceAll(title, "}", "")
	return strings.TrimSpace(title)
}

// FormatEntry renders one paper as a BibTeX entry under the given key.
// arXiv papers become @article with eprint metadata; everything else
// becomes @misc with a howpublished URL. URLs are never escaped.
func FormatEntry(key string, p types.Paper) string {
	var sb strings.Builder

	authors := make([]string, len(p.Authors))
	for i, a := range p.Authors {
		authors[i] = EscapeField(a)
	}
	authorField := strings.Join(authors, " and ")
	title := EscapeField(CleanTitle(p.Title))

	if p.ArxivID != "" {
		primary := ""
		if len(p.Categories) > 0 {
			primary = p.Categories[0]
		}
		fmt.Fprintf(&sb, "@article{%s,\n", key)
		fmt.Fprintf(&sb, "  title = {%s},\n", title)
		fmt.Fprintf(&sb, "  author = {%s},\n", authorField)
		fmt.Fprintf(&sb, "  year = {%d},\n", p.Year)
		fmt.Fprintf(&sb, "  eprint = {%s},\n", p.ArxivID)
		fmt.Fprintf(&sb, "  archivePrefix = {arXiv},\n")
		if primary != "" {
			fmt.Fprintf(&sb, "  primaryClass = {%s},\n", primary)
		}
		fmt.Fprintf(&sb, "  url = {%s},\n", p.URL)
		sb.WriteString("}\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "@misc{%s,\n", key)
	fmt.Fprintf(&sb, "  title = {%s},\n", title)
	if authorField != "" {
		fmt.Fprintf(&sb, "  author = {%s},\n", authorField)
	}
	if p.Year != 0 {
		fmt.Fprintf(&sb, "  year = {%d},\n", p.Year)
	}
	if p.URL != "" {
		fmt.Fprintf(&sb, "  howpublished = {\\url{%s}},\n", p.URL)
	}
	if p.DOI != "" {
		fmt.Fprintf(&sb, "  doi = {%s},\n", p.DOI)
	}
	sb.WriteString("}\n")
	return sb.String()
}
