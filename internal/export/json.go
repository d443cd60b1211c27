package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sandeepkv93/timeaudit/internal/model"
)

const jsonFormatVersion = "1.0"

// JSONExporter writes entries as a JSON document with an export
// metadata envelope. Every entry field survives a round trip through
// Import.
type JSONExporter struct{}

func (JSONExporter) Extension() string { return ".json" }

type jsonDocument struct {
	Entries  []model.Entry `json:"entries"`
	Metadata *jsonMetadata `json:"metadata,omitempty"`
}

type jsonMetadata struct {
	ExportDate    string `json:"export_date"`
	EntryCount    int    `json:"entry_count"`
	FormatVersion string `json:"format_version"`
}

func (JSONExporter) Export(w io.Writer, entries []model.Entry) error {
	if entries == nil {
		entries = []model.Entry{}
	}
	doc := jsonDocument{
		Entries: entries,
		Metadata: &jsonMetadata{
			ExportDate:    time.Now().Format(model.TimeLayout),
			EntryCount:    len(entries),
			FormatVersion: jsonFormatVersion,
		},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Import reads entries from a JSON export. It accepts both the
// metadata envelope Export writes and a bare entry array.
func Import(r io.Reader) ([]model.Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("export: read import: %w", err)
	}

	var entries []model.Entry
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err == nil && doc.Entries != nil {
		entries = doc.Entries
	} else if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("export: invalid JSON import: %w", err)
	}

	for i, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("export: import entry %d: %w", i, err)
		}
	}
	return entries, nil
}
