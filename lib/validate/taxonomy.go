// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package validate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Taxonomy is the set of known artifact type and category names.
// Membership is advisory: unknown names validate with a warning, not
// an error, so deployments can extend the vocabulary without code
// changes. Deployments that do extend it author a JSONC file (JSON
// with // comments and trailing commas) and load it with [ReadTaxonomy].
type Taxonomy struct {
	types      map[string]bool
	categories map[string]bool
}

// taxonomyFile is the on-disk shape of a taxonomy definition.
type taxonomyFile struct {
	Types      []string `json:"types"`
	Categories []string `json:"categories"`
}

// DefaultTaxonomy returns the built-in type and category vocabulary.
func DefaultTaxonomy() Taxonomy {
	return NewTaxonomy(
		[]string{
			"analysis", "report", "plan", "code", "template",
			"scan", "trace", "benchmark", "config", "dataset",
		},
		[]string{
			"business", "security", "performance", "quality",
			"architecture", "testing", "documentation", "general",
		},
	)
}

// NewTaxonomy builds a Taxonomy from explicit name lists.
func NewTaxonomy(types, categories []string) Taxonomy {
	taxonomy := Taxonomy{
		types:      make(map[string]bool, len(types)),
		categories: make(map[string]bool, len(categories)),
	}
	for _, name := range types {
		taxonomy.types[name] = true
	}
	for _, name := range categories {
		taxonomy.categories[name] = true
	}
	return taxonomy
}

// ReadTaxonomy loads a taxonomy from a JSONC file. The file holds a
// "types" array and a "categories" array; comments and trailing
// commas are allowed.
func ReadTaxonomy(path string) (Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("reading taxonomy %s: %w", path, err)
	}

	stripped := jsonc.ToJSON(data)

	var parsed taxonomyFile
	if err := json.Unmarshal(stripped, &parsed); err != nil {
		return Taxonomy{}, fmt.Errorf("parsing taxonomy %s: %w", path, err)
	}

	if len(parsed.Types) == 0 && len(parsed.Categories) == 0 {
		return Taxonomy{}, fmt.Errorf("taxonomy %s defines no types or categories", path)
	}

	return NewTaxonomy(parsed.Types, parsed.Categories), nil
}

// KnownType reports whether the type name is in the taxonomy.
func (t Taxonomy) KnownType(name string) bool { return t.types[name] }

// KnownCategory reports whether the category name is in the taxonomy.
func (t Taxonomy) KnownCategory(name string) bool { return t.categories[name] }
