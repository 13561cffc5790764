package store

import "testing"

func TestUpsertRelationOutcome(t *testing.T) {
	db := testDB(t)

	r := Relation{Subject: "Launched dashboard v2", Predicate: "involves", Object: "React", Source: "2026-02-18.md"}
	outcome, err := db.UpsertRelation(&r)
	if err != nil {
		t.Fatalf("UpsertRelation: %v", err)
	}
	if outcome != Inserted {
		t.Errorf("first upsert = %v, want Inserted", outcome)
	}

	outcome, err = db.UpsertRelation(&Relation{Subject: "Launched dashboard v2", Predicate: "involves", Object: "React"})
	if err != nil {
		t.Fatalf("UpsertRelation duplicate: %v", err)
	}
	if outcome != AlreadyExists {
		t.Errorf("duplicate upsert = %v, want AlreadyExists", outcome)
	}
}

func TestRelationsBySubjectPredicateLike(t *testing.T) {
	db := testDB(t)

	db.UpsertRelation(&Relation{Subject: "aiserver", Predicate: "runs_on", Object: "port 8080"})
	db.UpsertRelation(&Relation{Subject: "aiserver", Predicate: "involves", Object: "Docker"})

	rels, err := db.RelationsBySubjectPredicateLike("aiserver", "runs")
	if err != nil {
		t.Fatalf("RelationsBySubjectPredicateLike: %v", err)
	}
	if len(rels) != 1 || rels[0].Predicate != "runs_on" {
		t.Errorf("got %v, want single runs_on relation", rels)
	}
}

func TestRelationsFTSFollowsInserts(t *testing.T) {
	db := testDB(t)

	db.UpsertRelation(&Relation{Subject: "Launched dashboard v2", Predicate: "involves", Object: "Docker"})

	hits, err := db.SearchRelationsFTS("docker", 10)
	if err != nil {
		t.Fatalf("SearchRelationsFTS: %v", err)
	}
	if len(hits) != 1 || hits[0].Object != "Docker" {
		t.Errorf("fts hits = %v, want the Docker relation", hits)
	}
}

func TestUpsertAliasCaseInsensitive(t *testing.T) {
	db := testDB(t)

	if outcome, _ := db.UpsertAlias(&Alias{Alias: "mom", Entity: "Alice"}); outcome != Inserted {
		t.Errorf("first alias = %v, want Inserted", outcome)
	}
	if outcome, _ := db.UpsertAlias(&Alias{Alias: "MOM", Entity: "alice"}); outcome != AlreadyExists {
		t.Errorf("case-variant alias = %v, want AlreadyExists", outcome)
	}

	aliases, err := db.AllAliases()
	if err != nil {
		t.Fatalf("AllAliases: %v", err)
	}
	if len(aliases) != 1 {
		t.Errorf("alias count = %d, want 1", len(aliases))
	}
}

func TestLinkFactsSymmetric(t *testing.T) {
	db := testDB(t)

	a := Fact{Entity: "A", Key: "k", Value: "v1"}
	b := Fact{Entity: "B", Key: "k", Value: "v2"}
	db.UpsertFact(&a)
	db.UpsertFact(&b)

	if err := db.LinkFacts(a.ID, b.ID, 1.0); err != nil {
		t.Fatalf("LinkFacts: %v", err)
	}
	// Reversed order must strengthen the same row.
	if err := db.LinkFacts(b.ID, a.ID, 0.5); err != nil {
		t.Fatalf("LinkFacts reversed: %v", err)
	}

	links, err := db.CoOccurrences(a.ID)
	if err != nil {
		t.Fatalf("CoOccurrences: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("link count = %d, want 1", len(links))
	}
	if links[0].Weight != 1.5 {
		t.Errorf("weight = %v, want 1.5", links[0].Weight)
	}

	if err := db.LinkFacts(a.ID, a.ID, 1.0); err == nil {
		t.Error("expected error linking a fact to itself")
	}
}
