package rag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Document is one knowledge-base entry as stored on disk.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// LoadKnowledgeBase reads every *.json file under dir. A file may hold one
// document or an array of them. Files load in name order so ingestion is
// deterministic.
func LoadKnowledgeBase(dir string) ([]Document, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var docs []Document
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		loaded, err := decodeDocuments(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		base := filepath.Base(path)
		for i, d := range loaded {
			if d.Text == "" {
				return nil, fmt.Errorf("%s: document %d has no text", path, i)
			}
			if d.ID == "" {
				d.ID = fmt.Sprintf("%s#%d", base, i)
			}
			if d.Metadata == nil {
				d.Metadata = map[string]string{}
			}
			if _, ok := d.Metadata["source"]; !ok {
				d.Metadata["source"] = base
			}
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func decodeDocuments(raw []byte) ([]Document, error) {
	var many []Document
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	var one Document
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []Document{one}, nil
}
