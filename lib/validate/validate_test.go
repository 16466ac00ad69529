// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package validate

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestID(t *testing.T) {
	v := Default()

	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"simple", "analysis-001", true},
		{"dots and underscores", "scan_2026.03.01", true},
		{"empty", "", false},
		{"path separator", "a/b", false},
		{"space", "a b", false},
		{"shell metacharacter", "a;rm", false},
		{"too long", strings.Repeat("x", 256), false},
		{"at bound", strings.Repeat("x", 255), true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := v.ID(test.id)
			if result.Valid != test.valid {
				t.Errorf("ID(%q).Valid = %v, want %v (errors: %v)",
					test.id, result.Valid, test.valid, result.Errors)
			}
		})
	}
}

func TestTypeNameTaxonomyWarning(t *testing.T) {
	v := Default()

	known := v.TypeName("analysis")
	if !known.Valid || len(known.Warnings) != 0 {
		t.Errorf("known type: valid=%v warnings=%v", known.Valid, known.Warnings)
	}

	unknown := v.TypeName("widgets")
	if !unknown.Valid {
		t.Errorf("unknown type should be valid, errors: %v", unknown.Errors)
	}
	if len(unknown.Warnings) == 0 {
		t.Error("unknown type produced no warning")
	}

	uppercase := v.TypeName("Analysis")
	if uppercase.Valid {
		t.Error("uppercase type name passed validation")
	}
}

func TestPriorityBounds(t *testing.T) {
	v := Default()

	for _, priority := range []int{0, 5, 10} {
		if result := v.Priority(priority); !result.Valid {
			t.Errorf("Priority(%d) invalid: %v", priority, result.Errors)
		}
	}
	for _, priority := range []int{-1, 11, 100} {
		if result := v.Priority(priority); result.Valid {
			t.Errorf("Priority(%d) unexpectedly valid", priority)
		}
	}
}

func TestMetadataDepthAndSize(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxMetadataDepth = 3
	limits.MaxMetadataBytes = 100
	v := New(limits, DefaultTaxonomy())

	if result := v.Metadata(nil); !result.Valid {
		t.Errorf("nil metadata invalid: %v", result.Errors)
	}

	shallow := map[string]any{"a": map[string]any{"b": 1}}
	if result := v.Metadata(shallow); !result.Valid {
		t.Errorf("depth-2 metadata invalid: %v", result.Errors)
	}

	deep := map[string]any{"a": map[string]any{"b": map[string]any{"c": map[string]any{"d": 1}}}}
	if result := v.Metadata(deep); result.Valid {
		t.Error("depth-4 metadata passed a depth-3 limit")
	}

	big := map[string]any{"blob": strings.Repeat("x", 200)}
	if result := v.Metadata(big); result.Valid {
		t.Error("oversized metadata passed the byte limit")
	}

	reserved := map[string]any{"id": "shadow"}
	result := v.Metadata(reserved)
	if !result.Valid {
		t.Errorf("reserved-key metadata invalid: %v", result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Error("reserved key produced no warning")
	}
}

func TestTags(t *testing.T) {
	v := Default()

	over := make([]string, 51)
	for i := range over {
		over[i] = strings.Repeat("t", i+1)
	}
	if result := v.Tags(over); result.Valid {
		t.Error("51 tags passed a 50-tag limit")
	}

	result := v.Tags([]string{"go", "go", " padded ", ""})
	if !result.Valid {
		t.Errorf("advisory tag issues blocked validation: %v", result.Errors)
	}
	if len(result.Warnings) < 3 {
		t.Errorf("expected warnings for duplicate, padded, and empty tags, got %v", result.Warnings)
	}
}

func TestSanitizeTags(t *testing.T) {
	got := SanitizeTags([]string{" go ", "go", "", "sql", "go"})
	want := []string{"go", "sql"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeTags = %v, want %v", got, want)
	}

	if got := SanitizeTags(nil); got != nil {
		t.Errorf("SanitizeTags(nil) = %v, want nil", got)
	}
}

func TestSanitizeTitle(t *testing.T) {
	if got := SanitizeTitle("  a \t title\n with  gaps  "); got != "a title with gaps" {
		t.Errorf("SanitizeTitle = %q", got)
	}
}

func TestClampPriority(t *testing.T) {
	tests := []struct{ in, want int }{
		{-5, 0}, {0, 0}, {7, 7}, {10, 10}, {99, 10},
	}
	for _, test := range tests {
		if got := ClampPriority(test.in); got != test.want {
			t.Errorf("ClampPriority(%d) = %d, want %d", test.in, got, test.want)
		}
	}
}

func TestReadTaxonomy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.jsonc")
	content := `{
		// extended vocabulary for this deployment
		"types": ["analysis", "notebook",],
		"categories": ["general"],
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing taxonomy file: %v", err)
	}

	taxonomy, err := ReadTaxonomy(path)
	if err != nil {
		t.Fatalf("ReadTaxonomy: %v", err)
	}

	if !taxonomy.KnownType("notebook") {
		t.Error("notebook not recognized after load")
	}
	if taxonomy.KnownType("report") {
		t.Error("loaded taxonomy should replace, not extend, the default")
	}

	if _, err := ReadTaxonomy(filepath.Join(t.TempDir(), "missing.jsonc")); err == nil {
		t.Error("missing taxonomy file did not error")
	}
}
