package engine

import (
	"testing"

	"github.com/lazypower/recall/internal/store"
)

func TestSearchAliasPlusIntent(t *testing.T) {
	db := testDB(t)

	db.UpsertAlias(&store.Alias{Alias: "mom", Entity: "Alice"})
	db.UpsertFact(&store.Fact{Entity: "Alice", Key: "phone", Value: "555-0100", Source: "2026-01-10.md"})
	db.UpsertFact(&store.Fact{Entity: "Alice", Key: "email", Value: "alice@example.com"})

	results, err := Search(db, "What is Mom's phone number?", DefaultTopK)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}
	top := results[0]
	if top.Score != scoreEntityIntent {
		t.Errorf("top score = %d, want %d", top.Score, scoreEntityIntent)
	}
	if top.Method != "entity+intent" {
		t.Errorf("top method = %q, want entity+intent", top.Method)
	}
	if top.Answer != "Alice.phone = 555-0100" {
		t.Errorf("top answer = %q", top.Answer)
	}
	if top.Source != "2026-01-10.md" {
		t.Errorf("top source = %q", top.Source)
	}
}

func TestSearchEntityOnlyFallback(t *testing.T) {
	db := testDB(t)

	db.UpsertFact(&store.Fact{Entity: "Caddy", Key: "type", Value: "milestone"})
	db.UpsertRelation(&store.Relation{Subject: "Caddy", Predicate: "involves", Object: "Docker"})

	results, err := Search(db, "Tell me about Caddy", DefaultTopK)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(results), results)
	}
	if results[0].Score != scoreEntity || results[0].Method != "entity" {
		t.Errorf("first = %d/%q, want %d/entity", results[0].Score, results[0].Method, scoreEntity)
	}
	if results[1].Score != scoreEntityRel || results[1].Method != "entity+rel" {
		t.Errorf("second = %d/%q, want %d/entity+rel", results[1].Score, results[1].Method, scoreEntityRel)
	}
	if results[1].Answer != "Caddy → involves → Docker" {
		t.Errorf("relation answer = %q", results[1].Answer)
	}
}

func TestSearchFTSOnlyWhenNothingResolved(t *testing.T) {
	db := testDB(t)

	db.UpsertFact(&store.Fact{Entity: "Backup System", Key: "summary", Value: "nightly rsync to the NAS"})

	results, err := Search(db, "tell me about rsync backups", DefaultTopK)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected an FTS hit")
	}
	if results[0].Score != scoreFTSFacts || results[0].Method != "fts" {
		t.Errorf("got %d/%q, want %d/fts", results[0].Score, results[0].Method, scoreFTSFacts)
	}
}

func TestSearchFTSSkippedWhenEntityResolved(t *testing.T) {
	db := testDB(t)

	db.UpsertFact(&store.Fact{Entity: "Caddy", Key: "summary", Value: "reverse proxy rollout"})
	db.UpsertFact(&store.Fact{Entity: "Other", Key: "note", Value: "mentions Caddy in passing"})

	results, err := Search(db, "Caddy rollout", DefaultTopK)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		if r.Method == "fts" {
			t.Errorf("FTS phase ran despite entity hits: %+v", r)
		}
	}
}

func TestSearchDedupAcrossPhases(t *testing.T) {
	db := testDB(t)

	// phone matches both the intent key-fragment pass and the plain entity pass
	db.UpsertFact(&store.Fact{Entity: "Alice", Key: "phone", Value: "555-0100"})

	results, err := Search(db, "Alice phone number", DefaultTopK)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	seen := 0
	for _, r := range results {
		if r.Answer == "Alice.phone = 555-0100" {
			seen++
		}
	}
	if seen != 1 {
		t.Errorf("fact surfaced %d times, want 1 (highest-scoring phase wins)", seen)
	}
	if results[0].Score != scoreEntityIntent {
		t.Errorf("kept score = %d, want %d", results[0].Score, scoreEntityIntent)
	}
}

func TestSearchTopKTruncates(t *testing.T) {
	db := testDB(t)

	keys := []string{"phone", "email", "address", "birthday", "role", "status", "url"}
	for _, k := range keys {
		db.UpsertFact(&store.Fact{Entity: "Alice", Key: k, Value: "v-" + k})
	}

	results, err := Search(db, "Alice", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	db := testDB(t)

	results, err := Search(db, "", DefaultTopK)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("empty query returned %d results", len(results))
	}
}

func TestSearchMissingSourceFallsBack(t *testing.T) {
	db := testDB(t)

	db.UpsertFact(&store.Fact{Entity: "Alice", Key: "phone", Value: "555-0100"})

	results, err := Search(db, "Alice's phone", DefaultTopK)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 || results[0].Source != "facts.db" {
		t.Errorf("results = %+v, want source facts.db", results)
	}
}

func TestSearchTouchesAccessedFacts(t *testing.T) {
	db := testDB(t)

	db.UpsertFact(&store.Fact{Entity: "Alice", Key: "phone", Value: "555-0100"})
	if err := RunDecay(db); err != nil {
		t.Fatalf("RunDecay: %v", err)
	}
	if s := decayScore(t, db, "Alice"); s == nil || *s >= 1.0 {
		t.Fatalf("precondition: score = %v, want < 1.0", s)
	}

	if _, err := Search(db, "Alice's phone", DefaultTopK); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if s := decayScore(t, db, "Alice"); s == nil || *s != 1.0 {
		t.Errorf("score after access = %v, want 1.0", s)
	}
}

func TestExtractCandidates(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"What is Mom's phone number?", []string{"Mom"}},
		{"Where does Alice Smith live?", []string{"Alice", "Alice Smith", "Smith"}},
		{"what is my name", []string{SelfEntity}},
		{"is the homelab down", []string{"homelab"}},
	}
	for _, tc := range tests {
		got := ExtractCandidates(tc.query, nil)
		for _, w := range tc.want {
			if !containsString(got, w) {
				t.Errorf("ExtractCandidates(%q) = %v, missing %q", tc.query, got, w)
			}
		}
	}
}

func TestExtractCandidatesContractions(t *testing.T) {
	got := ExtractCandidates("What's happening, who's there?", nil)
	for _, c := range got {
		if c == "What" || c == "who" || c == "Who" {
			t.Errorf("contraction leaked into candidates: %v", got)
		}
	}
}

func TestExtractCandidatesStoredAliases(t *testing.T) {
	got := ExtractCandidates("call my mom about the trip", []string{"mom", "work laptop"})
	if !containsString(got, "mom") {
		t.Errorf("stored alias not matched: %v", got)
	}

	got = ExtractCandidates("the moment passed", []string{"mom"})
	if containsString(got, "mom") {
		t.Errorf("alias matched inside a larger word: %v", got)
	}

	got = ExtractCandidates("set up the work laptop tomorrow", []string{"work laptop"})
	if !containsString(got, "work laptop") {
		t.Errorf("multi-word alias not matched: %v", got)
	}
}

func TestExtractIntents(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"when is mom's birthday", "birthday"},
		{"what's alice's phone number", "phone"},
		{"what is bob's email", "email"},
		{"where does carol live", "address"},
		{"what url is the dashboard on", "url"},
		{"what port does grafana run on", "runs_on"},
		{"what stack is the project built with", "stack"},
		{"where is the blog hosted", "runs_on"},
	}
	for _, tc := range tests {
		got := ExtractIntents(tc.query)
		if !containsString(got, tc.want) {
			t.Errorf("ExtractIntents(%q) = %v, missing %q", tc.query, got, tc.want)
		}
	}

	if got := ExtractIntents("tell me about the garden"); len(got) != 0 {
		t.Errorf("ExtractIntents(no intent) = %v, want empty", got)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
