// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"context"
	"testing"
	"time"
)

func seedSearchFixtures(t *testing.T, service *Service) {
	t.Helper()
	ctx := context.Background()

	fixtures := []CreateRequest{
		createRequest("sec-urgent", func(r *CreateRequest) {
			r.Title = "Credential leak triage"
			r.Tags = []string{"cve", "urgent"}
			r.Priority = intPtr(9)
		}),
		createRequest("sec-routine", func(r *CreateRequest) {
			r.Title = "Quarterly dependency sweep"
			r.Description = "routine CVE refresh"
			r.Tags = []string{"cve"}
			r.Priority = intPtr(3)
		}),
		createRequest("perf-1", func(r *CreateRequest) {
			r.Type = "benchmark"
			r.Category = "performance"
			r.Title = "API latency baseline"
			r.Tags = []string{"latency"}
			r.Priority = intPtr(6)
		}),
	}
	for _, fixture := range fixtures {
		if _, err := service.Create(ctx, fixture); err != nil {
			t.Fatalf("Create %s: %v", fixture.ID, err)
		}
	}
}

func intPtr(v int) *int { return &v }

func TestSearchComposition(t *testing.T) {
	service, _ := openTestService(t, nil)
	seedSearchFixtures(t, service)
	ctx := context.Background()

	records, err := service.Search(ctx, SearchQuery{Category: "security", Tags: []string{"cve"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("category+tag search returned %d records", len(records))
	}
	// Default priority-descending order.
	if records[0].ID != "sec-urgent" || records[1].ID != "sec-routine" {
		t.Errorf("order = [%s, %s]", records[0].ID, records[1].ID)
	}

	// Adding a priority floor strictly narrows the set.
	records, err = service.Search(ctx, SearchQuery{
		Category:    "security",
		Tags:        []string{"cve"},
		MinPriority: intPtr(5),
	})
	if err != nil {
		t.Fatalf("Search with priority floor: %v", err)
	}
	if len(records) != 1 || records[0].ID != "sec-urgent" {
		t.Errorf("narrowed search = %v", recordIDs(records))
	}
}

func TestSearchFreeText(t *testing.T) {
	service, _ := openTestService(t, nil)
	seedSearchFixtures(t, service)
	ctx := context.Background()

	// Matches description of sec-routine and tags of sec-urgent and
	// sec-routine.
	records, err := service.Search(ctx, SearchQuery{Text: "CVE"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("text search = %v", recordIDs(records))
	}

	records, err = service.Search(ctx, SearchQuery{Text: "latency"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 || records[0].ID != "perf-1" {
		t.Errorf("text search = %v", recordIDs(records))
	}
}

func TestSearchPriorityRange(t *testing.T) {
	service, _ := openTestService(t, nil)
	seedSearchFixtures(t, service)

	records, err := service.Search(context.Background(), SearchQuery{
		MinPriority: intPtr(3),
		MaxPriority: intPtr(6),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// Inclusive on both ends: 3 and 6 match, 9 does not.
	if len(records) != 2 {
		t.Errorf("range search = %v", recordIDs(records))
	}
}

func TestSearchCreatedRange(t *testing.T) {
	service, fakeClock := openTestService(t, nil)
	ctx := context.Background()

	if _, err := service.Create(ctx, createRequest("early", nil)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	cutoff := fakeClock.Now()
	fakeClock.Advance(24 * time.Hour)
	if _, err := service.Create(ctx, createRequest("late", nil)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	records, err := service.Search(ctx, SearchQuery{CreatedAfter: cutoff.Add(time.Hour)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 || records[0].ID != "late" {
		t.Errorf("CreatedAfter search = %v", recordIDs(records))
	}

	records, err = service.Search(ctx, SearchQuery{CreatedBefore: cutoff})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// Inclusive bound: the artifact created exactly at the cutoff
	// matches.
	if len(records) != 1 || records[0].ID != "early" {
		t.Errorf("CreatedBefore search = %v", recordIDs(records))
	}
}

func TestSearchTitleOrdering(t *testing.T) {
	service, _ := openTestService(t, nil)
	seedSearchFixtures(t, service)

	records, err := service.Search(context.Background(), SearchQuery{
		OrderBy:        "title",
		OrderDirection: "asc",
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %v", recordIDs(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].Title > records[i].Title {
			t.Errorf("titles out of order: %q before %q", records[i-1].Title, records[i].Title)
		}
	}
}

func TestSearchPostFilterPagination(t *testing.T) {
	service, _ := openTestService(t, nil)
	ctx := context.Background()

	for _, id := range []string{"n-1", "n-2", "n-3", "n-4"} {
		if _, err := service.Create(ctx, createRequest(id, func(r *CreateRequest) {
			r.Description = "nightly run"
		})); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	page1, err := service.Search(ctx, SearchQuery{Text: "nightly", Limit: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	page2, err := service.Search(ctx, SearchQuery{Text: "nightly", Limit: 3, Offset: 3})
	if err != nil {
		t.Fatalf("Search page 2: %v", err)
	}
	if len(page1) != 3 || len(page2) != 1 {
		t.Errorf("pages = %d + %d, want 3 + 1", len(page1), len(page2))
	}
}

func TestStatsListings(t *testing.T) {
	service, _ := openTestService(t, nil)
	seedSearchFixtures(t, service)
	ctx := context.Background()

	stats, err := service.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalArtifacts != 3 {
		t.Errorf("TotalArtifacts = %d", stats.TotalArtifacts)
	}
	if stats.ByType["analysis"] != 2 || stats.ByType["benchmark"] != 1 {
		t.Errorf("ByType = %v", stats.ByType)
	}

	if len(stats.TopTags) == 0 || stats.TopTags[0].Tag != "cve" || stats.TopTags[0].Count != 2 {
		t.Errorf("TopTags = %v", stats.TopTags)
	}

	if len(stats.HighPriority) != 1 || stats.HighPriority[0].ID != "sec-urgent" {
		t.Errorf("HighPriority = %v", recordIDs(stats.HighPriority))
	}

	if len(stats.Recent) != 3 {
		t.Errorf("Recent = %v", recordIDs(stats.Recent))
	}
}

func recordIDs(records []*Record) []string {
	ids := make([]string, len(records))
	for i, record := range records {
		ids[i] = record.ID
	}
	return ids
}
