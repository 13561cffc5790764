package engine

import (
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/lazypower/recall/internal/store"
)

// Phase confidence scores. Entity-resolved answers always outrank
// full-text fallbacks.
const (
	scoreEntityIntent    = 95
	scoreEntityIntentRel = 90
	scoreEntity          = 70
	scoreEntityRel       = 65
	scoreFTSFacts        = 50
	scoreFTSRelations    = 40
)

// DefaultTopK bounds result lists when the caller doesn't say otherwise.
const DefaultTopK = 6

// Result is one ranked search answer.
type Result struct {
	Source string `json:"source"`
	Score  int    `json:"score"`
	Answer string `json:"answer"`
	Entity string `json:"entity"`
	Method string `json:"method"`
}

// ftsStopWords are dropped when building the full-text fallback query.
var ftsStopWords = map[string]bool{
	"what": true, "is": true, "the": true, "a": true, "an": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "how": true, "when": true, "where": true, "who": true,
	"which": true, "does": true, "do": true, "did": true, "has": true,
	"have": true, "about": true, "with": true, "my": true, "your": true,
	"this": true, "that": true, "are": true, "was": true,
}

var wordRe = regexp.MustCompile(`\w+`)

// Search answers a natural-language query against the fact graph.
// Candidates resolve through the alias table, intents narrow fact keys,
// and four confidence phases accumulate results: entity+intent (95/90),
// all entity facts/relations (70/65), then full-text fallback over facts
// (50, only when nothing resolved) and relations (40, while short of
// topK). Items deduplicate across phases; entity-resolved fact hits are
// touched so retrieval keeps them hot. The final list is stably sorted
// by score and truncated to topK.
func Search(db *store.DB, query string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	storedAliases, err := db.AllAliases()
	if err != nil {
		return nil, fmt.Errorf("load aliases: %w", err)
	}

	candidates := ExtractCandidates(query, storedAliases)
	intents := ExtractIntents(query)

	var results []Result
	seen := make(map[string]bool)

	emit := func(key string, r Result) bool {
		if seen[key] {
			return false
		}
		seen[key] = true
		results = append(results, r)
		return true
	}

	for _, candidate := range candidates {
		entity, ok, err := db.ResolveEntity(candidate)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", candidate, err)
		}
		if !ok {
			continue
		}

		// Phase 1: entity + intent (highest confidence)
		for _, intent := range intents {
			facts, err := db.FactsByEntityKeyLike(entity, intent)
			if err != nil {
				return nil, err
			}
			for _, f := range facts {
				if emit(entity+":"+f.Key, Result{
					Source: sourceOf(f.Source),
					Score:  scoreEntityIntent,
					Answer: fmt.Sprintf("%s.%s = %s", entity, f.Key, f.Value),
					Entity: entity,
					Method: "entity+intent",
				}) {
					touch(db, f.ID)
				}
			}

			rels, err := db.RelationsBySubjectPredicateLike(entity, intent)
			if err != nil {
				return nil, err
			}
			for _, r := range rels {
				emit(relKey(r), Result{
					Source: sourceOf(r.Source),
					Score:  scoreEntityIntentRel,
					Answer: relAnswer(r),
					Entity: entity,
					Method: "entity+intent+rel",
				})
			}
		}

		// Phase 2: everything else on the resolved entity
		facts, err := db.FactsByEntity(entity)
		if err != nil {
			return nil, err
		}
		for _, f := range facts {
			if emit(entity+":"+f.Key, Result{
				Source: sourceOf(f.Source),
				Score:  scoreEntity,
				Answer: fmt.Sprintf("%s.%s = %s", entity, f.Key, f.Value),
				Entity: entity,
				Method: "entity",
			}) {
				touch(db, f.ID)
			}
		}

		rels, err := db.RelationsBySubject(entity)
		if err != nil {
			return nil, err
		}
		for _, r := range rels {
			emit(relKey(r), Result{
				Source: sourceOf(r.Source),
				Score:  scoreEntityRel,
				Answer: relAnswer(r),
				Entity: entity,
				Method: "entity+rel",
			})
		}
	}

	ftsQuery := buildFTSQuery(query)

	// Phase 3: full-text over facts, only when nothing resolved
	if len(results) == 0 && ftsQuery != "" {
		facts, err := db.SearchFactsFTS(ftsQuery, topK)
		if err != nil {
			// Odd query syntax means an empty phase, not a failed search
			log.Printf("search: facts fts %q: %v", ftsQuery, err)
		}
		for _, f := range facts {
			emit(f.Entity+":"+f.Key, Result{
				Source: sourceOf(f.Source),
				Score:  scoreFTSFacts,
				Answer: fmt.Sprintf("%s.%s = %s", f.Entity, f.Key, f.Value),
				Entity: f.Entity,
				Method: "fts",
			})
		}
	}

	// Phase 4: full-text over relations, while still short of topK
	if len(results) < topK && ftsQuery != "" {
		rels, err := db.SearchRelationsFTS(ftsQuery, topK)
		if err != nil {
			log.Printf("search: relations fts %q: %v", ftsQuery, err)
		}
		for _, r := range rels {
			emit(relKey(r), Result{
				Source: sourceOf(r.Source),
				Score:  scoreFTSRelations,
				Answer: relAnswer(r),
				Entity: r.Subject,
				Method: "fts_rel",
			})
		}
	}

	// Stable sort preserves insertion order among ties
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// buildFTSQuery turns free text into an OR query of its significant words.
func buildFTSQuery(query string) string {
	var words []string
	for _, w := range wordRe.FindAllString(strings.ToLower(query), -1) {
		if len(w) > 1 && !ftsStopWords[w] {
			words = append(words, w)
		}
	}
	return strings.Join(words, " OR ")
}

func relKey(r store.Relation) string {
	return "rel:" + r.Subject + ":" + r.Predicate + ":" + r.Object
}

func relAnswer(r store.Relation) string {
	return fmt.Sprintf("%s → %s → %s", r.Subject, r.Predicate, r.Object)
}

func sourceOf(s string) string {
	if s == "" {
		return "facts.db"
	}
	return s
}

// touch resets a retrieved fact's decay score; a failed reset never
// fails the search.
func touch(db *store.DB, id int64) {
	if err := db.TouchFact(id); err != nil {
		log.Printf("search: touch fact %d: %v", id, err)
	}
}
