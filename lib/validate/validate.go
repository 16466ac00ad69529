// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package validate provides stateless predicate checks and sanitation
// for artifact fields. Checks return a [Result] with blocking errors
// and advisory warnings; nothing in this package touches storage.
package validate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field length and shape bounds. Errors block persistence; values at
// the bound are accepted.
type Limits struct {
	// MaxIDLength bounds artifact IDs.
	MaxIDLength int

	// MaxTypeLength bounds type and category names.
	MaxTypeLength int

	// MaxTitleLength bounds titles.
	MaxTitleLength int

	// MaxDescriptionLength bounds descriptions.
	MaxDescriptionLength int

	// MaxMetadataBytes bounds the JSON-serialized metadata size.
	MaxMetadataBytes int

	// MaxMetadataDepth bounds metadata tree nesting. The root map is
	// depth 1.
	MaxMetadataDepth int

	// MaxTags bounds the tag count.
	MaxTags int
}

// DefaultLimits returns the standard bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxIDLength:          255,
		MaxTypeLength:        100,
		MaxTitleLength:       500,
		MaxDescriptionLength: 5000,
		MaxMetadataBytes:     64 * 1024,
		MaxMetadataDepth:     8,
		MaxTags:              50,
	}
}

// Result reports the outcome of a validation check. Errors block
// persistence; warnings are advisory and never block.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Merge combines another result into this one. The merged result is
// valid only if both were.
func (r *Result) Merge(other Result) {
	if !other.Valid {
		r.Valid = false
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

func (r *Result) addError(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func ok() Result { return Result{Valid: true} }

// idPattern is the allowed character class for artifact IDs. IDs
// become filesystem names, so the class excludes path separators and
// anything needing escaping.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// namePattern is the allowed character class for type and category
// names. Lowercase so the on-disk tree is case-collision free.
var namePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// reservedMetadataKeys are top-level metadata keys that collide with
// artifact record fields. A collision is advisory — the metadata tree
// is stored as-is — but consumers flattening metadata into search
// results will shadow the record field.
var reservedMetadataKeys = map[string]bool{
	"id":       true,
	"type":     true,
	"category": true,
	"checksum": true,
	"priority": true,
	"tags":     true,
}

// Validator checks artifact fields against configured limits and a
// known-name taxonomy. The zero value is not usable; construct with
// [New].
type Validator struct {
	limits   Limits
	taxonomy Taxonomy
}

// New returns a Validator with the given limits and taxonomy.
func New(limits Limits, taxonomy Taxonomy) *Validator {
	return &Validator{limits: limits, taxonomy: taxonomy}
}

// Default returns a Validator with DefaultLimits and the built-in
// taxonomy.
func Default() *Validator {
	return New(DefaultLimits(), DefaultTaxonomy())
}

// ID checks an artifact ID: non-empty, bounded length, filesystem-safe
// character class.
func (v *Validator) ID(id string) Result {
	result := ok()
	if id == "" {
		result.addError("id is required")
		return result
	}
	if len(id) > v.limits.MaxIDLength {
		result.addError("id exceeds %d characters (got %d)", v.limits.MaxIDLength, len(id))
	}
	if !idPattern.MatchString(id) {
		result.addError("id %q contains characters outside [A-Za-z0-9._-]", id)
	}
	return result
}

// TypeName checks an artifact type: non-empty, bounded length, lowercase
// character class. Unknown types produce a warning, not an error — the
// taxonomy is advisory.
func (v *Validator) TypeName(typeName string) Result {
	result := v.checkName("type", typeName)
	if result.Valid && !v.taxonomy.KnownType(typeName) {
		result.addWarning("type %q is not in the known taxonomy", typeName)
	}
	return result
}

// Category checks an artifact category with the same rules as TypeName.
func (v *Validator) Category(category string) Result {
	result := v.checkName("category", category)
	if result.Valid && !v.taxonomy.KnownCategory(category) {
		result.addWarning("category %q is not in the known taxonomy", category)
	}
	return result
}

func (v *Validator) checkName(field, name string) Result {
	result := ok()
	if name == "" {
		result.addError("%s is required", field)
		return result
	}
	if len(name) > v.limits.MaxTypeLength {
		result.addError("%s exceeds %d characters (got %d)", field, v.limits.MaxTypeLength, len(name))
	}
	if !namePattern.MatchString(name) {
		result.addError("%s %q contains characters outside [a-z0-9_-]", field, name)
	}
	return result
}

// Title checks an artifact title: non-empty after trimming, bounded
// length. Leading/trailing or repeated internal whitespace produces a
// warning (Sanitize normalizes it).
func (v *Validator) Title(title string) Result {
	result := ok()
	if strings.TrimSpace(title) == "" {
		result.addError("title is required")
		return result
	}
	if utf8.RuneCountInString(title) > v.limits.MaxTitleLength {
		result.addError("title exceeds %d characters", v.limits.MaxTitleLength)
	}
	if title != strings.TrimSpace(title) {
		result.addWarning("title has leading or trailing whitespace")
	}
	if strings.Contains(title, "  ") || strings.ContainsAny(title, "\t\n\r") {
		result.addWarning("title contains irregular whitespace")
	}
	return result
}

// Description checks an optional description against its length bound.
func (v *Validator) Description(description string) Result {
	result := ok()
	if utf8.RuneCountInString(description) > v.limits.MaxDescriptionLength {
		result.addError("description exceeds %d characters", v.limits.MaxDescriptionLength)
	}
	return result
}

// Metadata checks a metadata tree: it must be map-rooted, within the
// serialized size bound, and within the nesting depth bound. Reserved
// top-level keys produce warnings. A nil metadata value is valid.
func (v *Validator) Metadata(metadata map[string]any) Result {
	result := ok()
	if metadata == nil {
		return result
	}

	serialized, err := json.Marshal(metadata)
	if err != nil {
		result.addError("metadata is not JSON-serializable: %v", err)
		return result
	}
	if len(serialized) > v.limits.MaxMetadataBytes {
		result.addError("metadata serializes to %d bytes, exceeds %d", len(serialized), v.limits.MaxMetadataBytes)
	}

	if depth := treeDepth(metadata); depth > v.limits.MaxMetadataDepth {
		result.addError("metadata nesting depth %d exceeds %d", depth, v.limits.MaxMetadataDepth)
	}

	for key := range metadata {
		if reservedMetadataKeys[key] {
			result.addWarning("metadata key %q shadows a record field", key)
		}
	}
	return result
}

// Tags checks a tag list: bounded count, each tag a non-empty string.
// Duplicates and whitespace-padded tags produce warnings (Sanitize
// removes them).
func (v *Validator) Tags(tags []string) Result {
	result := ok()
	if len(tags) > v.limits.MaxTags {
		result.addError("tag count %d exceeds %d", len(tags), v.limits.MaxTags)
	}

	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			result.addWarning("empty tag will be dropped")
			continue
		}
		if trimmed != tag {
			result.addWarning("tag %q has surrounding whitespace", tag)
		}
		if seen[trimmed] {
			result.addWarning("duplicate tag %q", trimmed)
		}
		seen[trimmed] = true
	}
	return result
}

// Priority checks that a priority is within [0, 10].
func (v *Validator) Priority(priority int) Result {
	result := ok()
	if priority < 0 || priority > 10 {
		result.addError("priority %d is outside [0, 10]", priority)
	}
	return result
}

// treeDepth returns the nesting depth of a decoded JSON value. A
// scalar is depth 0; a map or array counts one level plus its deepest
// element.
func treeDepth(value any) int {
	switch typed := value.(type) {
	case map[string]any:
		deepest := 0
		for _, child := range typed {
			if d := treeDepth(child); d > deepest {
				deepest = d
			}
		}
		return deepest + 1
	case []any:
		deepest := 0
		for _, child := range typed {
			if d := treeDepth(child); d > deepest {
				deepest = d
			}
		}
		return deepest + 1
	default:
		return 0
	}
}
