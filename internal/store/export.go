package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"groupsync/internal/fsutil"
	"groupsync/internal/model"
)

// Export is the on-disk backup format.
type Export struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exportedAt"`
	Groups     []model.Group `json:"groups"`
}

const exportVersion = 1

// WriteExport writes groups as indented JSON, replacing path atomically.
func WriteExport(path string, groups []model.Group) error {
	if groups == nil {
		groups = []model.Group{}
	}
	b, err := json.MarshalIndent(Export{Version: exportVersion, ExportedAt: time.Now().UTC(), Groups: groups}, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	b = append(b, '\n')
	if err := fsutil.WriteFileAtomic(path, b); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// ReadExport reads a file written by WriteExport and validates id uniqueness.
func ReadExport(path string) (*Export, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var ex Export
	if err := json.Unmarshal(b, &ex); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if ex.Version != exportVersion {
		return nil, fmt.Errorf("unsupported export version %d", ex.Version)
	}
	seen := map[model.GroupID]bool{}
	for _, g := range ex.Groups {
		if g.ID.IsZero() {
			return nil, fmt.Errorf("export: group %q has no id", g.Name)
		}
		if seen[g.ID] {
			return nil, fmt.Errorf("export: duplicate group id %s", g.ID)
		}
		seen[g.ID] = true
		items := map[model.ItemID]bool{}
		for _, it := range g.Items {
			if it.ID.IsZero() || items[it.ID] {
				return nil, fmt.Errorf("export: group %s has a missing or duplicate item id", g.ID)
			}
			items[it.ID] = true
		}
	}
	if ex.Groups == nil {
		ex.Groups = []model.Group{}
	}
	return &ex, nil
}
