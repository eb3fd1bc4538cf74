// Package schema provides record validation against the shared submission
// contract. Schemas are compiled on demand and cached for the life of the
// provider; a directory of override schemas can replace the embedded defaults.
package schema

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Ashfaaq98/threat-aggregator/internal/model"
)

//go:embed schemas/*.json
var defaultSchemas embed.FS

// Result is the outcome of validating one record.
type Result struct {
	Valid  bool
	Errors []string
}

// Provider validates records against the per-dataType JSON Schemas. It is
// constructed once per run and passed explicitly; there is no package-level
// schema state.
type Provider struct {
	dir string

	mu    sync.Mutex
	cache map[model.DataType]*gojsonschema.Schema
}

// NewProvider constructs a Provider. dir may be empty, in which case only the
// embedded default schemas are used; otherwise <dir>/<dataType>.json overrides
// the default for that data type.
func NewProvider(dir string) *Provider {
	return &Provider{
		dir:   dir,
		cache: make(map[model.DataType]*gojsonschema.Schema),
	}
}

// Validate checks record against the schema for dt. The error return is for
// provider failures (unknown data type, broken schema); schema violations are
// reported through Result.
func (p *Provider) Validate(record map[string]interface{}, dt model.DataType) (Result, error) {
	schema, err := p.schemaFor(dt)
	if err != nil {
		return Result{}, err
	}
	res, err := schema.Validate(gojsonschema.NewGoLoader(record))
	if err != nil {
		return Result{}, fmt.Errorf("validate %s record: %w", dt, err)
	}
	out := Result{Valid: res.Valid()}
	for _, e := range res.Errors() {
		out.Errors = append(out.Errors, e.String())
	}
	return out, nil
}

// Reload drops all cached schemas so the next validation recompiles them,
// picking up changes in the override directory.
func (p *Provider) Reload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[model.DataType]*gojsonschema.Schema)
}

// schemaFor returns the compiled schema for dt, loading it on first use.
func (p *Provider) schemaFor(dt model.DataType) (*gojsonschema.Schema, error) {
	if !dt.IsKnown() {
		return nil, fmt.Errorf("no schema for data type %q", dt)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.cache[dt]; ok {
		return s, nil
	}

	raw, err := p.loadSchema(dt)
	if err != nil {
		return nil, err
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", dt, err)
	}
	p.cache[dt] = schema
	return schema, nil
}

// loadSchema reads the override file when present, otherwise the embedded default.
func (p *Provider) loadSchema(dt model.DataType) ([]byte, error) {
	name := string(dt) + ".json"
	if p.dir != "" {
		override := filepath.Join(p.dir, name)
		if raw, err := os.ReadFile(override); err == nil {
			return raw, nil
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read schema %s: %w", override, err)
		}
	}
	raw, err := defaultSchemas.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("embedded schema for %s: %w", dt, err)
	}
	return raw, nil
}
