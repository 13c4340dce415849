// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bibtex parses and formats the workspace BibTeX file and
// generates citation keys. The parser is deliberately small: it handles
// the entries this pipeline writes (brace-delimited fields, one entry per
// @type{key,...} block), not the full BibTeX grammar.
package bibtex

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Entry is one parsed BibTeX entry.
type Entry struct {
	// Type is the entry type without "@", e.g. "article" or "misc".
	Type string

	// Key is the citation key.
	Key string

	// Fields maps lowercased field names to raw values with the outer
	// braces or quotes stripped.
	Fields map[string]string
}

// Index is a lookup of citation keys to entries.
type Index map[string]Entry

// Has reports whether the key exists. A nil index accepts every key so
// callers can skip validation when no bib file is available.
func (idx Index) Has(key string) bool {
	if idx == nil {
		return true
	}
	_, ok := idx[key]
	return ok
}

// entryStartRe matches "@type{key," at the start of an entry.
var entryStartRe = regexp.MustCompile(`@([a-zA-Z]+)\s*\{\s*([^,\s]+)\s*,`)

// Parse reads BibTeX source and returns entries in file order plus the
// list of duplicated keys (each duplicate reported once).
func Parse(src string) ([]Entry, []string, error) {
	var entries []Entry
	seen := make(map[string]int)
	var duplicates []string

	locs := entryStartRe.FindAllStringSubmatchIndex(src, -1)
	for _, loc := range locs {
		entryType := strings.ToLower(src[loc[2]:loc[3]])
		key := src[loc[4]:loc[5]]

		body, err := balancedBody(src, loc[1])
		if err != nil {
			return nil, nil, fmt.Errorf("entry %s: %w", key, err)
		}

		entries = append(entries, Entry{
			Type:   entryType,
			Key:    key,
			Fields: parseFields(body),
		})

		seen[key]++
		if seen[key] == 2 {
			duplicates = append(duplicates, key)
		}
	}

	sort.Strings(duplicates)
	return entries, duplicates, nil
}

// balancedBody returns the text from the field start (just after
// "@type{key,") to the entry's closing brace, exclusive.
func balancedBody(src string, from int) (string, error) {
	depth := 1
	for i := from; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return src[from:i], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced braces")
}

// parseFields splits an entry body into name = value pairs. Values may be
// brace-delimited (nesting respected), quote-delimited, or bare.
func parseFields(body string) map[string]string {
	fields := make(map[string]string)
	i := 0
	for i < len(body) {
		// Field name up to '='.
		eq := strings.IndexByte(body[i:], '=')
		if eq < 0 {
			break
		}
		name := strings.ToLower(strings.Trim(body[i:i+eq], " \t\r\n,"))
		i += eq + 1

		// Skip whitespace before the value.
		for i < len(body) && (body[i] == ' ' || body[i] == '\t' || body[i] == '\n' || body[i] == '\r') {
			i++
		}
		if i >= len(body) {
			break
		}

		var value string
		switch body[i] {
		case '{':
			depth := 0
			j := i
			for ; j < len(body); j++ {
				if body[j] == '{' {
					depth++
				} else if body[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
			}
			value = body[i+1 : j]
			i = j + 1
		case '"':
			j := strings.IndexByte(body[i+1:], '"')
			if j < 0 {
				value = body[i+1:]
				i = len(body)
			} else {
				value = body[i+1 : i+1+j]
				i = i + j + 2
			}
		default:
			j := strings.IndexAny(body[i:], ",\n")
			if j < 0 {
				value = body[i:]
				i = len(body)
			} else {
				value = body[i : i+j]
				i += j + 1
			}
		}

		if name != "" {
			fields[name] = strings.TrimSpace(value)
		}

		// Skip the separator comma.
		for i < len(body) && (body[i] == ',' || body[i] == ' ' || body[i] == '\t' || body[i] == '\n' || body[i] == '\r') {
			i++
		}
	}
	return fields
}

// BuildIndex parses BibTeX source into a key lookup. Later entries with a
// duplicated key overwrite earlier ones; the duplicate list is returned
// alongside so gates can flag them.
func BuildIndex(src string) (Index, []string, error) {
	entries, duplicates, err := Parse(src)
	if err != nil {
		return nil, nil, err
	}
	idx := make(Index, len(entries))
	for _, e := range entries {
		idx[e.Key] = e
	}
	return idx, duplicates, nil
}

// nonAlnumRe strips everything outside [A-Za-z0-9].
var nonAlnumRe = regexp.MustCompile(`[^A-Za-z0-9]+`)

// keyStopwords are skipped when picking the title keyword for a citation key.
var keyStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "on": true, "of": true, "for": true,
	"and": true, "or": true, "in": true, "to": true, "with": true, "via": true,
	"towards": true, "toward": true,
}

// GenerateKey builds a citation key of the form
// <LastName><Year><KeywordTitle>, appending a, b, c... on collision with
// keys already in taken. The chosen key is recorded in taken.
func GenerateKey(authors []string, year int, title string, taken map[string]bool) string {
	last := "Unknown"
	if len(authors) > 0 {
		parts := strings.Fields(authors[0])
		if len(parts) > 0 {
			last = parts[len(parts)-1]
		}
	}
	last = nonAlnumRe.ReplaceAllString(last, "")
	if last == "" {
		last = "Unknown"
	}

	keyword := ""
	for _, w := range strings.Fields(title) {
		clean := nonAlnumRe.ReplaceAllString(w, "")
		if clean == "" || keyStopwords[strings.ToLower(clean)] {
			continue
		}
		keyword = strings.ToUpper(clean[:1]) + clean[1:]
		break
	}

	base := fmt.Sprintf("%s%d%s", strings.ToUpper(last[:1])+last[1:], year, keyword)
	key := base
	for suffix := 'a'; taken[key]; suffix++ {
		key = base + string(suffix)
	}
	taken[key] = true
	return key
}
