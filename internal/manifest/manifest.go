// Package manifest loads package manifests from YAML and checks them
// against the manifest schema.
package manifest

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ralt/appget/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
	k8syaml "sigs.k8s.io/yaml"
)

const schemaName = "manifest.schema.json"

//go:embed schema/manifest.schema.json
var manifestSchema []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaName, bytes.NewReader(manifestSchema)); err != nil {
			compileErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile(schemaName)
	})
	return compiled, compileErr
}

// ValidateSchema checks YAML or JSON manifest data against the manifest schema
func ValidateSchema(data []byte) error {
	sch, err := schema()
	if err != nil {
		return err
	}

	jsonData, err := k8syaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}

	var v any
	if err := json.Unmarshal(jsonData, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// Parse decodes and validates a manifest. The version tag "latest" is
// stored as nil, and install methods and architectures are normalized.
func Parse(data []byte) (*models.PackageManifest, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, &models.AppGetError{Type: models.ErrInvalidManifest, Err: err}
	}

	var m models.PackageManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &models.AppGetError{Type: models.ErrInvalidManifest, Err: fmt.Errorf("failed to decode manifest: %w", err)}
	}

	normalize(&m)

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func normalize(m *models.PackageManifest) {
	m.ID = strings.TrimSpace(m.ID)
	if m.VersionTag != nil {
		m.VersionTag = models.NormalizeVersionTag(*m.VersionTag)
	}
	if method, err := models.ParseInstallMethod(string(m.InstallMethod)); err == nil {
		m.InstallMethod = method
	}
	for i := range m.Installers {
		m.Installers[i].Location = strings.TrimSpace(m.Installers[i].Location)
		m.Installers[i].Sha256 = strings.ToLower(strings.TrimSpace(m.Installers[i].Sha256))
		m.Installers[i].Architecture = m.Installers[i].Architecture.Normalized()
	}
}

// Load reads and parses a manifest file
func Load(path string) (*models.PackageManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.AppGetError{Type: models.ErrInvalidManifest, Source: path, Err: err}
	}
	m, err := Parse(data)
	if err != nil {
		return nil, withSource(err, path)
	}
	return m, nil
}

// Fetcher retrieves small text resources
type Fetcher interface {
	FetchText(ctx context.Context, source string) (string, error)
}

// Fetch downloads and parses the manifest at source
func Fetch(ctx context.Context, f Fetcher, source string) (*models.PackageManifest, error) {
	body, err := f.FetchText(ctx, source)
	if err != nil {
		return nil, err
	}
	m, err := Parse([]byte(body))
	if err != nil {
		return nil, withSource(err, source)
	}
	return m, nil
}

// Encode renders a manifest as YAML
func Encode(m *models.PackageManifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func withSource(err error, source string) error {
	if ae, ok := err.(*models.AppGetError); ok && ae.Source == "" {
		ae.Source = source
	}
	return err
}
