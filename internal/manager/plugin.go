package manager

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/colonyops/pluggit/internal/core/refs"
)

const metadataFile = "plugin.json"

// Plugin is one installed plugin: its identity, source, and current ref.
type Plugin struct {
	ID        string
	UUID      string
	URL       string
	LocalPath string
	Ref       refs.Item
	Enabled   bool
}

// metadata is the persisted per-plugin record, stored as plugin.json in
// the plugin's working tree parent directory.
type metadata struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	UUID    string `json:"uuid"`
	Ref     string `json:"ref"`
	RefType string `json:"ref_type"`
	Commit  string `json:"commit"`
	Enabled bool   `json:"enabled"`
}

func (p *Plugin) metadata() metadata {
	return metadata{
		Name:    p.ID,
		URL:     p.URL,
		UUID:    p.UUID,
		Ref:     p.Ref.Name,
		RefType: string(p.Ref.Type()),
		Commit:  p.Ref.Commit,
		Enabled: p.Enabled,
	}
}

func pluginFromMetadata(dir string, m metadata) *Plugin {
	item := refs.Item{
		Name:      m.Ref,
		Commit:    m.Commit,
		IsTag:     m.RefType == string(refs.TypeTag),
		IsBranch:  m.RefType == string(refs.TypeBranch),
		IsCurrent: true,
	}
	return &Plugin{
		ID:        m.Name,
		UUID:      m.UUID,
		URL:       m.URL,
		LocalPath: dir,
		Ref:       item,
		Enabled:   m.Enabled,
	}
}

func saveMetadata(dir string, m metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plugin metadata: %w", err)
	}
	path := filepath.Join(dir, metadataFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write plugin metadata: %w", err)
	}
	return nil
}

func loadMetadata(dir string) (metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return metadata{}, fmt.Errorf("read plugin metadata: %w", err)
	}
	var m metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return metadata{}, fmt.Errorf("parse plugin metadata: %w", err)
	}
	return m, nil
}
