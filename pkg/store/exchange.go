package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidImport is returned for documents that are neither an export
// snapshot nor a legacy workflow array.
var ErrInvalidImport = errors.New("invalid configuration file")

// ImportFormat tells which document shape an import recognised.
type ImportFormat int

const (
	ImportSnapshot ImportFormat = iota
	ImportLegacy
)

func (f ImportFormat) String() string {
	if f == ImportLegacy {
		return "legacy"
	}
	return "snapshot"
}

// Export returns a copy of every collection.
func (s *Store) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Workflows:      cloneWorkflows(s.workflows),
		Shortcuts:      slices.Clone(s.shortcuts),
		Tools:          slices.Clone(s.tools),
		WatchedFolders: slices.Clone(s.folders),
	}
}

// ExportJSON renders the export document as indented JSON.
func (s *Store) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s.Export(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return append(data, '\n'), nil
}

// importDoc mirrors Snapshot with pointers so absent fields can be told
// apart from empty ones.
type importDoc struct {
	Workflows      *[]Workflow      `json:"workflows"`
	Shortcuts      *[]Launcher      `json:"shortcuts"`
	Tools          *[]Launcher      `json:"tools"`
	WatchedFolders *[]WatchedFolder `json:"watchedFolders"`
}

func (d importDoc) empty() bool {
	return d.Workflows == nil && d.Shortcuts == nil && d.Tools == nil && d.WatchedFolders == nil
}

// Import replaces collections from an export document or a legacy bare
// array of workflows. Each collection present in the document replaces the
// stored one; absent collections are kept. Nothing changes on error.
func (s *Store) Import(ctx context.Context, data []byte) (ImportFormat, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return 0, ErrInvalidImport
	}

	var doc importDoc
	format := ImportSnapshot
	if trimmed[0] == '[' {
		var workflows []Workflow
		if err := json.Unmarshal(trimmed, &workflows); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		doc.Workflows = &workflows
		format = ImportLegacy
	} else {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		if doc.empty() {
			return 0, fmt.Errorf("%w: no known collections", ErrInvalidImport)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make(map[string]string)
	encode := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		entries[key] = string(b)
		return nil
	}
	if doc.Workflows != nil {
		ws := nonNil(*doc.Workflows)
		s.mintTaskIDs(ws)
		for i := range ws {
			if ws[i].Tasks == nil {
				ws[i].Tasks = []Task{}
			}
		}
		doc.Workflows = &ws
		if err := encode(WorkflowsKey, ws); err != nil {
			return 0, err
		}
	}
	if doc.Shortcuts != nil {
		if err := encode(ShortcutsKey, nonNil(*doc.Shortcuts)); err != nil {
			return 0, err
		}
	}
	if doc.Tools != nil {
		if err := encode(ToolsKey, nonNil(*doc.Tools)); err != nil {
			return 0, err
		}
	}
	if doc.WatchedFolders != nil {
		if err := encode(FoldersKey, nonNil(*doc.WatchedFolders)); err != nil {
			return 0, err
		}
	}
	if err := s.kv.PutAll(ctx, entries); err != nil {
		return 0, fmt.Errorf("saving import: %w", err)
	}

	if doc.Workflows != nil {
		s.workflows = *doc.Workflows
	}
	if doc.Shortcuts != nil {
		s.shortcuts = nonNil(*doc.Shortcuts)
	}
	if doc.Tools != nil {
		s.tools = nonNil(*doc.Tools)
	}
	if doc.WatchedFolders != nil {
		s.folders = nonNil(*doc.WatchedFolders)
	}
	s.log.Info().Stringer("format", format).Int("collections", len(entries)).Msg("imported configuration")
	return format, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
