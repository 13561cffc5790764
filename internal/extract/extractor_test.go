package extract

import (
	"strings"
	"testing"

	"github.com/lazypower/recall/internal/store"
)

func factSet(facts []store.Fact) map[[3]string]bool {
	set := make(map[[3]string]bool, len(facts))
	for _, f := range facts {
		set[[3]string{f.Entity, f.Key, f.Value}] = true
	}
	return set
}

func relationSet(rels []store.Relation) map[[3]string]bool {
	set := make(map[[3]string]bool, len(rels))
	for _, r := range rels {
		set[[3]string{r.Subject, r.Predicate, r.Object}] = true
	}
	return set
}

func TestExtractTaggedMilestone(t *testing.T) {
	doc := "## Launched dashboard v2 [milestone|i=0.9]\nUsed React and Docker. https://a.example/x\n"
	res := Extract(doc, "2026-02-18.md")

	facts := factSet(res.Facts)
	want := [][3]string{
		{"Launched dashboard v2", "type", "milestone"},
		{"Launched dashboard v2", "date", "2026-02-18"},
		{"Launched dashboard v2", "importance", "0.9"},
		{"Launched dashboard v2", "summary", "Used React and Docker. https://a.example/x"},
		{"Launched dashboard v2", "url", "https://a.example/x"},
	}
	for _, w := range want {
		if !facts[w] {
			t.Errorf("missing fact %v (have %v)", w, res.Facts)
		}
	}

	rels := relationSet(res.Relations)
	if !rels[[3]string{"Launched dashboard v2", "involves", "React"}] {
		t.Error("missing involves React relation")
	}
	if !rels[[3]string{"Launched dashboard v2", "involves", "Docker"}] {
		t.Error("missing involves Docker relation")
	}

	for _, f := range res.Facts {
		if f.Source != "2026-02-18.md" {
			t.Errorf("fact %v source = %q, want 2026-02-18.md", f, f.Source)
		}
	}
}

func TestExtractSkipsLowImportance(t *testing.T) {
	doc := "## Minor note [context|i=0.2]\nSomething barely worth keeping around for the afternoon.\n"
	res := Extract(doc, "2026-02-18.md")

	if len(res.Facts) != 0 {
		t.Errorf("low-importance section produced %d facts, want 0", len(res.Facts))
	}
}

func TestExtractCapsURLsAtThree(t *testing.T) {
	doc := "## Link dump [milestone|i=0.8]\n" +
		"https://a.example/1 https://a.example/2 https://a.example/3 https://a.example/4\n"
	res := Extract(doc, "2026-02-18.md")

	urls := 0
	for _, f := range res.Facts {
		if f.Key == "url" {
			urls++
		}
	}
	if urls != 3 {
		t.Errorf("url facts = %d, want 3", urls)
	}
}

func TestExtractStructuredBullets(t *testing.T) {
	doc := `## Blog deploy
- **URL**: https://blog.example.com
- **Port**: runs on port 2368
- **Status**: live and healthy
- **Cron job ID**: abc-123
`
	res := Extract(doc, "notes.md")

	facts := factSet(res.Facts)
	want := [][3]string{
		{"Blog deploy", "url", "https://blog.example.com"},
		{"Blog deploy", "port", "2368"},
		{"Blog deploy", "status", "live and healthy"},
		{"Blog deploy", "cron_job_id", "abc-123"},
	}
	for _, w := range want {
		if !facts[w] {
			t.Errorf("missing fact %v (have %v)", w, res.Facts)
		}
	}
}

func TestExtractStructuredSkipsLongValues(t *testing.T) {
	doc := "## Section\n- **Status**: " + strings.Repeat("x", 301) + "\n"
	res := Extract(doc, "notes.md")

	for _, f := range res.Facts {
		if f.Key == "status" {
			t.Errorf("long value became a fact: %v", f)
		}
	}
}

func TestExtractStructuredParentIsNearestHeader(t *testing.T) {
	doc := `## First service
Some text about it.

## Second service
- **Endpoint URL**: https://second.example.com
`
	res := Extract(doc, "notes.md")

	found := false
	for _, f := range res.Facts {
		if f.Value == "https://second.example.com" {
			found = true
			if f.Entity != "Second service" {
				t.Errorf("url fact entity = %q, want Second service", f.Entity)
			}
			if f.Key != "endpoint_url" {
				t.Errorf("url fact key = %q, want endpoint_url", f.Key)
			}
		}
	}
	if !found {
		t.Error("endpoint url fact not extracted")
	}
}

func TestExtractUntaggedSections(t *testing.T) {
	doc := `## Replaced the reverse proxy
Moved everything from Caddy to Traefik on the homelab, took most of the evening.
`
	res := Extract(doc, "2026-01-05.md")

	facts := factSet(res.Facts)
	if !facts[[3]string{"Replaced the reverse proxy", "type", "event"}] {
		t.Error("missing type=event fact")
	}
	if !facts[[3]string{"Replaced the reverse proxy", "date", "2026-01-05"}] {
		t.Error("missing date fact")
	}

	rels := relationSet(res.Relations)
	if !rels[[3]string{"Replaced the reverse proxy", "involves", "Caddy"}] {
		t.Error("missing involves Caddy relation")
	}
	if !rels[[3]string{"Replaced the reverse proxy", "involves", "Traefik"}] {
		t.Error("missing involves Traefik relation")
	}
}

func TestExtractUntaggedSkipsGenericAndThin(t *testing.T) {
	doc := `## Notes
This section is generic and should never become an entity even with length.

## Tiny
Too short.
`
	res := Extract(doc, "2026-01-05.md")
	if len(res.Facts) != 0 {
		t.Errorf("generic/thin sections produced facts: %v", res.Facts)
	}
}

func TestExtractIdempotentMerge(t *testing.T) {
	// A tagged section also matched by the structured strategy must not
	// produce duplicate tuples.
	doc := `## Ghost blog [milestone|i=0.8]
- **Status**: deployed
- **Status**: deployed
`
	res := Extract(doc, "2026-02-18.md")

	seen := make(map[[3]string]int)
	for _, f := range res.Facts {
		seen[[3]string{f.Entity, f.Key, f.Value}]++
	}
	for k, n := range seen {
		if n > 1 {
			t.Errorf("fact %v emitted %d times", k, n)
		}
	}
}

func TestExtractUnknownDate(t *testing.T) {
	doc := "## Shipped something [milestone|i=0.9]\nA release with enough body text to count.\n"
	res := Extract(doc, "undated-notes.md")

	facts := factSet(res.Facts)
	if !facts[[3]string{"Shipped something", "date", "unknown"}] {
		t.Error("undated source should yield date=unknown")
	}
}

func TestInferCategoryFirstMatchWins(t *testing.T) {
	tests := []struct {
		entity, key, value string
		want               string
	}{
		// entity project rule fires before the key rules
		{"ClawSmith", "port", "8080", "project"},
		{"Blog pipeline", "anything", "x", "event"},
		{"Alice", "phone", "555-0100", "contact"},
		{"aiserver", "port", "8080", "infrastructure"},
		{"Something", "status", "done", "event"},
		{"Something", "type", "milestone", "event"},
		{"Big decision about storage", "why", "robust", "decision"},
		{"docker host", "name", "big-box", "infrastructure"},
		{"Toby", "role", "research", "identity"},
		{"Nothing matches here", "custom", "value", "event"},
	}
	for _, tt := range tests {
		got := InferCategory(tt.entity, tt.key, tt.value)
		if got != tt.want {
			t.Errorf("InferCategory(%q, %q, %q) = %q, want %q",
				tt.entity, tt.key, tt.value, got, tt.want)
		}
	}
}

func TestInferCategoryDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		if got := InferCategory("ClawSmith", "port", "8080"); got != "project" {
			t.Fatalf("run %d: InferCategory = %q, want project", i, got)
		}
	}
}
