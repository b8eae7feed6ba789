package dashboard

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// CatalogManifest models a YAML document extending the widget catalog, so
// deployments can register widget kinds without recompiling.
type CatalogManifest struct {
	Version string         `json:"version" yaml:"version"`
	Name    string         `json:"name,omitempty" yaml:"name,omitempty"`
	Widgets []CatalogEntry `json:"widgets" yaml:"widgets"`
	Source  string         `json:"-" yaml:"-"`
}

// LoadManifestFile reads a manifest from disk and registers its entries.
func (c *Catalog) LoadManifestFile(path string) (*CatalogManifest, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := c.LoadManifest(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifest registers every entry from a decoded manifest.
func (c *Catalog) LoadManifest(doc *CatalogManifest) error {
	if doc == nil {
		return fmt.Errorf("dashboard: manifest document is nil")
	}
	for _, entry := range doc.Widgets {
		if err := c.Register(entry); err != nil {
			return fmt.Errorf("dashboard: register widget %s from %s: %w", entry.Type, doc.Source, err)
		}
	}
	return nil
}

// ReadManifest loads a manifest file without registering it.
func ReadManifest(path string) (*CatalogManifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader. Unknown fields are
// rejected so typos surface at load time.
func DecodeManifest(r io.Reader) (*CatalogManifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc CatalogManifest
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("dashboard: manifest is empty")
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *CatalogManifest) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[WidgetType]struct{}, len(doc.Widgets))
	for idx, entry := range doc.Widgets {
		if entry.Type == "" {
			return fmt.Errorf("dashboard: manifest widget at index %d is missing type", idx)
		}
		if entry.Name == "" {
			return fmt.Errorf("dashboard: manifest widget %s missing name", entry.Type)
		}
		if entry.DefaultSize.W < 1 || entry.DefaultSize.H < 1 {
			return fmt.Errorf("dashboard: manifest widget %s needs a default size of at least 1x1", entry.Type)
		}
		if _, exists := seen[entry.Type]; exists {
			return fmt.Errorf("dashboard: manifest duplicates widget type %s", entry.Type)
		}
		seen[entry.Type] = struct{}{}
	}
	return nil
}

// WriteManifest encodes the manifest as YAML to w.
func WriteManifest(w io.Writer, doc *CatalogManifest) error {
	tmp := *doc
	tmp.Source = ""
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(tmp); err != nil {
		return fmt.Errorf("dashboard: write manifest: %w", err)
	}
	return nil
}
