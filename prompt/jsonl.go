package prompt

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// SchemaVersion is written into the metadata header of exported files.
const SchemaVersion = 1

// maxLineSize bounds a single JSONL record.
const maxLineSize = 4 << 20

// Meta is the optional header line of a JSONL corpus file.
type Meta struct {
	Version       string `json:"version"`
	Count         int    `json:"count"`
	ExportedAt    string `json:"exported_at"`
	SchemaVersion int    `json:"schema_version"`
}

type metaLine struct {
	Meta Meta `json:"_meta"`
}

// ReadJSONL parses a JSONL corpus. The first non-empty line is treated as
// metadata only when it is an object with a top-level "_meta" key; the
// returned Meta is the zero value when no header is present.
func ReadJSONL(r io.Reader) ([]Prompt, Meta, error) {
	var (
		prompts []Prompt
		meta    Meta
		lineNum int
		first   = true
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		if first {
			first = false
			var probe map[string]json.RawMessage
			if err := json.Unmarshal(line, &probe); err != nil {
				return nil, Meta{}, fmt.Errorf("line %d: parse json: %w", lineNum, err)
			}
			if _, ok := probe["_meta"]; ok {
				var m metaLine
				if err := json.Unmarshal(line, &m); err != nil {
					return nil, Meta{}, fmt.Errorf("line %d: parse metadata: %w", lineNum, err)
				}
				meta = m.Meta
				continue
			}
		}

		var p Prompt
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, Meta{}, fmt.Errorf("line %d: parse prompt: %w", lineNum, err)
		}
		prompts = append(prompts, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, Meta{}, fmt.Errorf("line %d: %w", lineNum+1, err)
	}

	return prompts, meta, nil
}

// WriteJSONL writes a metadata header followed by one prompt per line.
// Count and SchemaVersion are filled in from prompts when left zero.
func WriteJSONL(w io.Writer, prompts []Prompt, meta Meta) error {
	meta.Count = len(prompts)
	if meta.SchemaVersion == 0 {
		meta.SchemaVersion = SchemaVersion
	}
	if meta.ExportedAt == "" {
		meta.ExportedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if meta.Version == "" {
		meta.Version = meta.ExportedAt
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(metaLine{Meta: meta}); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	for _, p := range prompts {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode prompt %s: %w", p.ID, err)
		}
	}
	return bw.Flush()
}

// ImportFile reads and validates a JSONL corpus file.
func ImportFile(path string) ([]Prompt, Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("open corpus %s: %w", path, err)
	}
	defer f.Close()

	prompts, meta, err := ReadJSONL(f)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("read corpus %s: %w", path, err)
	}
	if err := ValidateCorpus(prompts); err != nil {
		return nil, Meta{}, fmt.Errorf("validate corpus %s: %w", path, err)
	}
	return prompts, meta, nil
}

// ExportFile atomically writes prompts to path: the data goes to a temp file
// in the same directory, is fsynced, then renamed over the destination.
func ExportFile(path string, prompts []Prompt, meta Meta) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err = WriteJSONL(tmp, prompts, meta); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmpPath, path, err)
	}
	return nil
}
