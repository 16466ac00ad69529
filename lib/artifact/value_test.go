// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"math"
	"testing"
)

func TestNewValueKinds(t *testing.T) {
	value, err := NewValue(map[string]any{
		"name":    "depscan",
		"count":   float64(3),
		"enabled": true,
		"opts":    []any{"a", "b"},
		"nothing": nil,
	})
	if err != nil {
		t.Fatalf("NewValue: %v", err)
	}

	object, ok := value.Map()
	if !ok {
		t.Fatal("root is not a map")
	}
	if name, ok := object["name"].String(); !ok || name != "depscan" {
		t.Errorf("name = %v", object["name"])
	}
	if count, ok := object["count"].Number(); !ok || count != 3 {
		t.Errorf("count = %v", object["count"])
	}
	if enabled, ok := object["enabled"].Bool(); !ok || !enabled {
		t.Errorf("enabled = %v", object["enabled"])
	}
	if opts, ok := object["opts"].Array(); !ok || len(opts) != 2 {
		t.Errorf("opts = %v", object["opts"])
	}
	if !object["nothing"].IsNull() {
		t.Error("nothing is not null")
	}
}

func TestNewValueDepthBound(t *testing.T) {
	// Nest exactly to the bound: accepted.
	atLimit := any("leaf")
	for range MaxValueDepth - 1 {
		atLimit = map[string]any{"inner": atLimit}
	}
	if _, err := NewValue(atLimit); err != nil {
		t.Errorf("tree at depth bound rejected: %v", err)
	}

	// One level past: rejected.
	pastLimit := map[string]any{"inner": atLimit}
	if _, err := NewValue(pastLimit); err == nil {
		t.Error("tree past depth bound accepted")
	}
}

func TestNewValueRejectsUnsupported(t *testing.T) {
	if _, err := NewValue(make(chan int)); err == nil {
		t.Error("channel accepted as metadata")
	}
	if _, err := NewValue(math.NaN()); err == nil {
		t.Error("NaN accepted as metadata")
	}
	if _, err := NewValue(map[string]any{"inf": math.Inf(1)}); err == nil {
		t.Error("infinity accepted as metadata")
	}
}

func TestValueInterfaceRoundTrip(t *testing.T) {
	original := map[string]any{
		"tool": "depscan",
		"runs": []any{float64(1), float64(2)},
		"cfg":  map[string]any{"deep": true},
	}
	metadata, err := NewMetadata(original)
	if err != nil {
		t.Fatalf("NewMetadata: %v", err)
	}

	restored := MetadataInterface(metadata)
	if restored["tool"] != "depscan" {
		t.Errorf("tool = %v", restored["tool"])
	}
	runs := restored["runs"].([]any)
	if len(runs) != 2 || runs[0] != float64(1) {
		t.Errorf("runs = %v", runs)
	}
	if restored["cfg"].(map[string]any)["deep"] != true {
		t.Errorf("cfg = %v", restored["cfg"])
	}
}
