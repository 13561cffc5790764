// Package extract turns journal-style markdown into candidate facts,
// relations, and aliases. Three independent strategies run over the same
// document and their outputs merge with tuple-keyed deduplication; nothing
// here touches the store.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lazypower/recall/internal/store"
)

var (
	// ## Section Header [tag|i=0.X]
	taggedEntryRe = regexp.MustCompile(`(?m)^##\s+(.+?)\s+\[(\w+)\|i=([\d.]+)\]\s*$`)

	// Any ## header, tag suffix stripped
	headerRe = regexp.MustCompile(`(?m)^##\s+(.+?)(?:\s+\[.*\])?\s*$`)

	// Top-level # header, used as a parent-section fallback
	h1Re = regexp.MustCompile(`(?m)^#\s+(.+)$`)

	nextSectionRe = regexp.MustCompile(`(?m)^##\s`)

	urlRe = regexp.MustCompile(`https?://[^\s\)>\]]+`)

	// Port assignments: port XXXX, :XXXX
	portRe = regexp.MustCompile(`(?:port|:)\s*(\d{4,5})\b`)

	// Bullet key-values: - **Key**: Value (or em-dash variants)
	kvBulletRe = regexp.MustCompile(`(?m)^\s*[-*]\s+\*\*(.+?)\*\*[:\s—]+(.+)$`)

	dateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// minTaggedImportance is the threshold below which tagged entries are
// treated as noise and skipped.
const minTaggedImportance = 0.4

// Result holds candidate rows produced by extraction, not yet committed.
type Result struct {
	Facts     []store.Fact
	Relations []store.Relation
	Aliases   []store.Alias
}

// Extract runs all three strategies over a document, merges their output
// with deduplication, and classifies each fact. sourceID (typically the
// journal filename) is stamped on every candidate.
func Extract(content, sourceID string) Result {
	tagged := parseTaggedEntries(content, sourceID)
	structured := parseStructuredData(content, sourceID)
	untagged := parseUntaggedSections(content, sourceID)

	merged := Merge(tagged, structured, untagged)
	for i := range merged.Facts {
		f := &merged.Facts[i]
		if f.Category == "" {
			f.Category = InferCategory(f.Entity, f.Key, f.Value)
		}
	}
	return merged
}

// Merge combines extraction results in order, deduplicating facts by
// (entity, key, value), relations by (subject, predicate, object), and
// aliases by (alias, entity).
func Merge(results ...Result) Result {
	var merged Result
	seenFacts := make(map[[3]string]bool)
	seenRelations := make(map[[3]string]bool)
	seenAliases := make(map[[2]string]bool)

	for _, r := range results {
		for _, f := range r.Facts {
			key := [3]string{f.Entity, f.Key, f.Value}
			if seenFacts[key] {
				continue
			}
			seenFacts[key] = true
			merged.Facts = append(merged.Facts, f)
		}
		for _, rel := range r.Relations {
			key := [3]string{rel.Subject, rel.Predicate, rel.Object}
			if seenRelations[key] {
				continue
			}
			seenRelations[key] = true
			merged.Relations = append(merged.Relations, rel)
		}
		for _, a := range r.Aliases {
			key := [2]string{a.Alias, a.Entity}
			if seenAliases[key] {
				continue
			}
			seenAliases[key] = true
			merged.Aliases = append(merged.Aliases, a)
		}
	}
	return merged
}

// parseTaggedEntries extracts sections headed `## Title [tag|i=0.NN]` as
// event entities with type/date/importance/summary/url facts and
// project/tech/agent relations.
func parseTaggedEntries(content, sourceID string) Result {
	var res Result
	dateStr := dateFromSource(sourceID)

	for _, loc := range taggedEntryRe.FindAllStringSubmatchIndex(content, -1) {
		title := strings.TrimSpace(content[loc[2]:loc[3]])
		tag := content[loc[4]:loc[5]]
		importance, err := strconv.ParseFloat(content[loc[6]:loc[7]], 64)
		if err != nil {
			continue
		}

		// Low-importance context entries are noise
		if importance < minTaggedImportance {
			continue
		}

		entity := truncate(title, 80)
		body := sectionBody(content, loc[1])

		res.Facts = append(res.Facts,
			store.Fact{Entity: entity, Key: "type", Value: tag, Source: sourceID},
			store.Fact{Entity: entity, Key: "date", Value: dateStr, Source: sourceID},
			store.Fact{Entity: entity, Key: "importance", Value: formatImportance(importance), Source: sourceID},
		)

		if summary := firstContentLine(body, false); summary != "" {
			res.Facts = append(res.Facts, store.Fact{
				Entity: entity, Key: "summary", Value: truncate(summary, 200), Source: sourceID,
			})
		}

		urls := urlRe.FindAllString(body, -1)
		if len(urls) > 3 {
			urls = urls[:3]
		}
		for _, u := range urls {
			res.Facts = append(res.Facts, store.Fact{
				Entity: entity, Key: "url", Value: u, Source: sourceID,
			})
		}

		res.Relations = append(res.Relations, detectRelations(entity, title, body, sourceID)...)
	}
	return res
}

// parseStructuredData extracts key-value bullets, attaching each fact to
// the nearest preceding section header.
func parseStructuredData(content, sourceID string) Result {
	var res Result

	for _, loc := range kvBulletRe.FindAllStringSubmatchIndex(content, -1) {
		key := strings.TrimSpace(content[loc[2]:loc[3]])
		value := strings.TrimSpace(content[loc[4]:loc[5]])

		// Very long values are prose, not facts
		if len(value) > 300 {
			continue
		}

		keyLower := strings.ToLower(key)
		start := loc[0]

		if containsAny(keyLower, "url", "endpoint", "link", "domain", "site") {
			if url := urlRe.FindString(value); url != "" {
				if entity := findParentSection(content, start); entity != "" {
					res.Facts = append(res.Facts, store.Fact{
						Entity: entity,
						Key:    strings.ReplaceAll(keyLower, " ", "_"),
						Value:  url,
						Source: sourceID,
					})
				}
			}
		}

		if strings.Contains(keyLower, "port") || strings.Contains(strings.ToLower(value), "port") {
			if m := portRe.FindStringSubmatch(value); m != nil {
				if entity := findParentSection(content, start); entity != "" {
					res.Facts = append(res.Facts, store.Fact{
						Entity: entity, Key: "port", Value: m[1], Source: sourceID,
					})
				}
			}
		}

		if containsAny(keyLower, "status", "state", "result") {
			if entity := findParentSection(content, start); entity != "" {
				res.Facts = append(res.Facts, store.Fact{
					Entity: entity, Key: "status", Value: truncate(value, 100), Source: sourceID,
				})
			}
		}

		if strings.Contains(keyLower, "cron") || strings.Contains(keyLower, "job id") {
			if entity := findParentSection(content, start); entity != "" {
				res.Facts = append(res.Facts, store.Fact{
					Entity: entity, Key: "cron_job_id", Value: truncate(value, 100), Source: sourceID,
				})
			}
		}
	}
	return res
}

// parseUntaggedSections is the fallback for `##` headers without an
// importance tag (older journal files). Generic headers and thin sections
// are skipped.
func parseUntaggedSections(content, sourceID string) Result {
	var res Result
	dateStr := dateFromSource(sourceID)

	for _, loc := range headerRe.FindAllStringSubmatchIndex(content, -1) {
		line := strings.TrimSpace(content[loc[0]:loc[1]])
		// Tagged entries are already handled by parseTaggedEntries
		if taggedEntryRe.MatchString(line) {
			continue
		}

		title := strings.TrimSpace(content[loc[2]:loc[3]])
		if skipHeaders[strings.ToLower(title)] {
			continue
		}

		body := sectionBody(content, loc[1])
		// Only sections with substance become entities
		if len(body) < 50 {
			continue
		}

		entity := truncate(title, 80)
		res.Facts = append(res.Facts,
			store.Fact{Entity: entity, Key: "type", Value: "event", Source: sourceID},
			store.Fact{Entity: entity, Key: "date", Value: dateStr, Source: sourceID},
		)

		if summary := firstContentLine(body, true); summary != "" {
			res.Facts = append(res.Facts, store.Fact{
				Entity: entity, Key: "summary", Value: truncate(summary, 200), Source: sourceID,
			})
		}

		res.Relations = append(res.Relations, detectRelations(entity, title, body, sourceID)...)
	}
	return res
}

// detectRelations finds known project, technology, and agent mentions in
// a section and emits the corresponding relations.
func detectRelations(entity, title, body, sourceID string) []store.Relation {
	var rels []store.Relation
	bodyLower := strings.ToLower(body)
	titleLower := strings.ToLower(title)

	for _, proj := range projectNames {
		p := strings.ToLower(proj)
		if strings.Contains(bodyLower, p) || strings.Contains(titleLower, p) {
			rels = append(rels, store.Relation{
				Subject: entity, Predicate: "related_to", Object: proj, Source: sourceID,
			})
		}
	}

	for _, tech := range techPatterns {
		for _, pat := range tech.Patterns {
			if strings.Contains(body, pat) || strings.Contains(title, pat) {
				rels = append(rels, store.Relation{
					Subject: entity, Predicate: "involves", Object: tech.Name, Source: sourceID,
				})
				break
			}
		}
	}

	for _, agent := range agentNames {
		if strings.Contains(bodyLower, strings.ToLower(agent)) {
			rels = append(rels, store.Relation{
				Subject: entity, Predicate: "involves_agent", Object: agent, Source: sourceID,
			})
		}
	}

	return rels
}

// sectionBody returns the trimmed text from a header's end to the next
// `##` header or end of document.
func sectionBody(content string, start int) string {
	rest := content[start:]
	if loc := nextSectionRe.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	return strings.TrimSpace(rest)
}

// findParentSection returns the nearest `##` header above a position,
// falling back to the nearest `#` header. Empty when the position has no
// enclosing section.
func findParentSection(content string, pos int) string {
	before := content[:pos]
	if headers := headerRe.FindAllStringSubmatch(before, -1); len(headers) > 0 {
		return truncate(strings.TrimSpace(headers[len(headers)-1][1]), 80)
	}
	if headers := h1Re.FindAllStringSubmatch(before, -1); len(headers) > 0 {
		return truncate(strings.TrimSpace(headers[len(headers)-1][1]), 80)
	}
	return ""
}

// firstContentLine returns the first non-empty line of a section body
// that isn't a header; skipTables also drops markdown table rows.
func firstContentLine(body string, skipTables bool) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.Trim(line, "- "))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if skipTables && strings.HasPrefix(line, "|") {
			continue
		}
		return line
	}
	return ""
}

func dateFromSource(sourceID string) string {
	if m := dateRe.FindString(sourceID); m != "" {
		return m
	}
	return "unknown"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// formatImportance renders an importance the way it was written in the
// tag, without float artifacts (0.9, not 0.900000).
func formatImportance(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
