// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workspace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// maxLineBytes bounds a single JSONL record. Evidence packs with many
// snippets can run long, so this is generous.
const maxLineBytes = 4 << 20

// ReadJSONL decodes one record per non-blank line from the
// workspace-relative path.
func ReadJSONL[T any](ws *Workspace, rel string) ([]T, error) {
	f, err := os.Open(ws.Path(rel))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", rel, err)
	}
	defer f.Close()

	var records []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", rel, lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	return records, nil
}

// WriteJSONL encodes one record per line and writes the result through
// WriteArtifact (freeze markers and backup rotation apply).
func WriteJSONL[T any](ws *Workspace, rel string, records []T) (bool, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return false, fmt.Errorf("encoding %s record %d: %w", rel, i, err)
		}
	}
	return ws.WriteArtifact(rel, buf.Bytes())
}
