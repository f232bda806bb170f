package catalogsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"toolusage/internal/domain"
)

// FileSource reads a catalog from a local JSON, YAML or TOML file.
// Each format accepts a top-level "plugins" list; JSON and YAML also accept a bare list.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

type fileCatalog struct {
	Plugins []domain.CatalogEntry `json:"plugins" yaml:"plugins" toml:"plugins"`
}

func (s *FileSource) Load(ctx context.Context) ([]domain.CatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, domain.E(domain.CodeUnavailable, "catalog.file", fmt.Sprintf("read %s", s.path), err)
	}
	entries, err := decodeCatalogFile(s.path, data)
	if err != nil {
		return nil, domain.E(domain.CodeInvalidArgument, "catalog.file", fmt.Sprintf("decode %s", s.path), err)
	}
	return normalizeEntries(entries), nil
}

func decodeCatalogFile(path string, data []byte) ([]domain.CatalogEntry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return decodeJSONCatalog(json.NewDecoder(bytes.NewReader(data)))
	case ".yaml", ".yml":
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, err
		}
		if len(root.Content) == 0 {
			return nil, nil
		}
		if root.Content[0].Kind == yaml.SequenceNode {
			var entries []domain.CatalogEntry
			if err := root.Content[0].Decode(&entries); err != nil {
				return nil, err
			}
			return entries, nil
		}
		var catalog fileCatalog
		if err := root.Content[0].Decode(&catalog); err != nil {
			return nil, err
		}
		return catalog.Plugins, nil
	case ".toml":
		var catalog fileCatalog
		if err := toml.Unmarshal(data, &catalog); err != nil {
			return nil, err
		}
		return catalog.Plugins, nil
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
}

var _ Source = (*FileSource)(nil)
