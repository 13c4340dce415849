// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workspace

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pdiddy/surveyforge/pkg/types"
)

// Queries holds the workspace-level knobs from queries.md. The file is a
// Markdown bullet list: scalar knobs as "- key: value" and list knobs as
// a "- key:" bullet followed by indented "  - item" bullets.
type Queries struct {
	Keywords []string
	Exclude  []string

	MaxResults int
	CoreSize   int

	// From and To bound the retrieval time window (YYYY-MM or YYYY-MM-DD).
	From string
	To   string

	// EvidenceMode is "abstract" or "fulltext".
	EvidenceMode string

	DraftProfile types.Profile
}

// LoadQueries parses queries.md. Missing knobs keep zero values; the
// draft profile falls back to default.
func (ws *Workspace) LoadQueries() (Queries, error) {
	data, err := os.ReadFile(ws.Path(FileQueries))
	if err != nil {
		return Queries{}, fmt.Errorf("reading queries: %w", err)
	}
	return parseQueries(string(data))
}

func parseQueries(content string) (Queries, error) {
	q := Queries{DraftProfile: types.ProfileDefault}

	var listKey string
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, " \t")
		if line == "" {
			continue
		}

		indented := strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t")
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "- ") {
			listKey = ""
			continue
		}
		item := strings.TrimSpace(strings.TrimPrefix(trimmed, "- "))

		// Indented bullet under a list knob.
		if indented && listKey != "" {
			switch listKey {
			case "keywords":
				q.Keywords = append(q.Keywords, item)
			case "exclude":
				q.Exclude = append(q.Exclude, item)
			}
			continue
		}

		key, value, found := strings.Cut(item, ":")
		if !found {
			listKey = ""
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if value == "" {
			switch key {
			case "keywords", "exclude":
				listKey = key
			default:
				listKey = ""
			}
			continue
		}
		listKey = ""

		switch key {
		case "max_results":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Queries{}, fmt.Errorf("queries.md: bad max_results %q", value)
			}
			q.MaxResults = n
		case "core_size":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Queries{}, fmt.Errorf("queries.md: bad core_size %q", value)
			}
			q.CoreSize = n
		case "from":
			q.From = value
		case "to":
			q.To = value
		case "evidence_mode":
			q.EvidenceMode = value
		case "draft_profile":
			q.DraftProfile = types.ParseProfile(value)
		}
	}

	return q, nil
}
