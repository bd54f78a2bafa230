// Package schema loads the per-registry extension-attribute schema: the
// organization-specific attributes items and relationships may carry beyond
// the built-in fields. The schema lives in a YAML file and can be hot
// reloaded while the registry runs.
package schema

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/registra-io/registra/internal/log"
	registry "github.com/registra-io/registra/internal/registry/domain"
)

// fileField is the YAML shape of one declared attribute.
type fileField struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
}

// Load parses a schema file:
//
//	attributes:
//	  - name: steward
//	    type: string
//	    required: true
//	  - name: review_due
//	    type: date
func Load(path string) (registry.ExtensionSchema, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return Parse(data)
}

// Parse parses schema YAML from memory.
func Parse(data []byte) (registry.ExtensionSchema, error) {
	var doc struct {
		Attributes []fileField `yaml:"attributes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	out := make(registry.ExtensionSchema, len(doc.Attributes))
	for i, f := range doc.Attributes {
		if f.Name == "" {
			return nil, fmt.Errorf("attribute %d: name is required", i)
		}
		typ := registry.ValueType(f.Type)
		if !typ.IsValid() {
			return nil, fmt.Errorf("attribute %q: unknown type %q", f.Name, f.Type)
		}
		if _, dup := out[f.Name]; dup {
			return nil, fmt.Errorf("attribute %q: declared twice", f.Name)
		}
		out[f.Name] = registry.ExtensionField{Name: f.Name, Type: typ, Required: f.Required}
	}
	return out, nil
}

// Holder is a concurrency-safe handle on the active schema. The watcher
// swaps it on reload; readers always see a complete schema.
type Holder struct {
	mu     sync.RWMutex
	schema registry.ExtensionSchema
}

// NewHolder creates a holder with an initial schema (nil is valid and
// accepts no extension attributes).
func NewHolder(s registry.ExtensionSchema) *Holder {
	return &Holder{schema: s}
}

// Current returns the active schema.
func (h *Holder) Current() registry.ExtensionSchema {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.schema
}

// Replace swaps in a new schema.
func (h *Holder) Replace(s registry.ExtensionSchema) {
	h.mu.Lock()
	h.schema = s
	h.mu.Unlock()
	log.Info(log.CatSchema, "extension schema replaced", "attributes", len(s))
}
