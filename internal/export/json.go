package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const jsonIndent = "    "

// Marshal renders the document pretty printed with keys sorted at every
// level, so consecutive exports diff cleanly.
func Marshal(doc *Document) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("error encoding export: %w", err)
	}

	// Struct fields keep declaration order; round-tripping through generic
	// maps gets them sorted like every other key.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("error normalising export: %w", err)
	}

	// Names such as "Floods & <Landslides>" are written literally.
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", jsonIndent)
	if err := enc.Encode(generic); err != nil {
		return nil, fmt.Errorf("error encoding export: %w", err)
	}
	return out.Bytes(), nil
}

// Load reads a document previously written by FileSink.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading export: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error decoding export %s: %w", path, err)
	}
	return &doc, nil
}

// FileSink writes the document to Path, replacing any previous export.
type FileSink struct {
	Path string
}

func (s *FileSink) Name() string {
	return "json"
}

func (s *FileSink) Write(ctx context.Context, doc *Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating export directory: %w", err)
		}
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("error writing export: %w", err)
	}
	return nil
}
