// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gate

import (
	"regexp"
	"strings"
)

// Placeholder markers that must never survive into a shipped artifact.
var placeholderMarkers = []string{
	"TODO",
	"TBD",
	"FIXME",
	"(placeholder)",
	"<!-- SCAFFOLD",
}

var (
	// ellipsisRunRe catches "..." runs; the unicode ellipsis is matched
	// separately because writers paste it from chat transcripts.
	ellipsisRunRe = regexp.MustCompile(`\.{3,}`)

	// placeholderCiteRe catches template citation keys like [@Key1].
	placeholderCiteRe = regexp.MustCompile(`\[@Key\d+\]`)

	// citeBlockRe matches an inline citation block, e.g. [@A] or [@A; @B].
	citeBlockRe = regexp.MustCompile(`\[@[^\]]+\]`)

	// citeKeyRe extracts individual keys from a citation block.
	citeKeyRe = regexp.MustCompile(`@([A-Za-z][A-Za-z0-9:_-]*)`)

	sentenceSplitRe = regexp.MustCompile(`[.!?]\s+`)
)

// scanPlaceholders returns the distinct placeholder markers found in text,
// in catalog order.
func scanPlaceholders(text string) []string {
	var found []string
	for _, m := range placeholderMarkers {
		if strings.Contains(text, m) {
			found = append(found, m)
		}
	}
	if strings.ContainsRune(text, '…') {
		found = append(found, "…")
	}
	if ellipsisRunRe.MatchString(text) {
		found = append(found, "...")
	}
	if placeholderCiteRe.MatchString(text) {
		found = append(found, "[@KeyN]")
	}
	return found
}

// citedKeys extracts the unique citation keys from text, in first-seen
// order.
func citedKeys(text string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, block := range citeBlockRe.FindAllString(text, -1) {
		for _, m := range citeKeyRe.FindAllStringSubmatch(block, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				keys = append(keys, m[1])
			}
		}
	}
	return keys
}

// stripCitations removes inline citation blocks so content-length and
// boilerplate checks see prose only.
func stripCitations(text string) string {
	return citeBlockRe.ReplaceAllString(text, " ")
}

// normalizeSentence strips citations, collapses whitespace, and lowercases.
func normalizeSentence(s string) string {
	s = stripCitations(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// repeatedSentences finds normalized sentences of at least minLen runes
// that occur at least minRepeats times, returned in first-seen order.
func repeatedSentences(text string, minLen, minRepeats int) []string {
	counts := make(map[string]int)
	var order []string
	for _, raw := range sentenceSplitRe.Split(text, -1) {
		s := normalizeSentence(raw)
		if len([]rune(s)) < minLen {
			continue
		}
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}

	var repeated []string
	for _, s := range order {
		if counts[s] >= minRepeats {
			repeated = append(repeated, s)
		}
	}
	return repeated
}

// paragraphs splits markdown text on blank lines.
func paragraphs(text string) []string {
	var paras []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			paras = append(paras, block)
		}
	}
	return paras
}

// tokenize lowercases and splits text into words of at least three
// characters, trimming common punctuation.
func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:?!()[]\"'")
		if len(w) >= 3 {
			tokens[w] = true
		}
	}
	return tokens
}
