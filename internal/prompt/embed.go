package prompt

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed templates
var templateFS embed.FS

// manifest describes the built-in audience templates shipped in the binary.
type manifest struct {
	Templates []manifestEntry `yaml:"templates"`
}

type manifestEntry struct {
	Audience    string `yaml:"audience"`
	File        string `yaml:"file"`
	Description string `yaml:"description"`
}

// loadManifest parses the embedded template manifest.
func loadManifest() (*manifest, error) {
	raw, err := templateFS.ReadFile("templates/manifest.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded template manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing template manifest: %w", err)
	}
	if len(m.Templates) == 0 {
		return nil, fmt.Errorf("template manifest lists no templates")
	}
	return &m, nil
}

// BuiltinTemplate returns the embedded template text for an audience.
func BuiltinTemplate(audience Audience) (string, error) {
	m, err := loadManifest()
	if err != nil {
		return "", err
	}
	for _, entry := range m.Templates {
		if entry.Audience == string(audience) {
			raw, err := templateFS.ReadFile("templates/" + entry.File)
			if err != nil {
				return "", fmt.Errorf("reading embedded template %s: %w", entry.File, err)
			}
			return string(raw), nil
		}
	}
	return "", fmt.Errorf("no built-in template for audience %q", audience)
}

// Audiences returns the audiences declared in the embedded manifest,
// in manifest order.
func Audiences() ([]string, error) {
	m, err := loadManifest()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(m.Templates))
	for _, entry := range m.Templates {
		out = append(out, entry.Audience)
	}
	return out, nil
}
