package engine

import (
	"regexp"
	"strings"
	"unicode"
)

// SelfEntity is the canonical identity entity that self-referential
// queries ("who am I", "my name") resolve to.
const SelfEntity = "Gandalf"

// lowercaseAliases are surface forms worth probing even when the query
// never capitalizes them.
var lowercaseAliases = []string{
	"mama", "jojo", "flo", "aiserver", "homelab", "n8n", "keystone",
	"clawsmith", "postiz", "komodo", "ghost", "ollama", "mdt", "ait",
	"the server", "ha",
}

// contractionSkip blocks interrogative contractions ("who's") from being
// read as possessives.
var contractionSkip = map[string]bool{
	"who": true, "what": true, "where": true, "when": true, "how": true,
	"it": true, "that": true, "there": true, "here": true,
}

// genericAliases are stored aliases too generic to match against query
// text without drowning the results.
var genericAliases = map[string]bool{
	"i": true, "me": true, "my name": true, "who am i": true,
	"ha": true, "the server": true,
}

var selfReferencePhrases = []string{
	"who am i", "my name", "what am i", "my principles",
	"what do i care", "how should i communicate",
}

var (
	nonWordRe    = regexp.MustCompile(`\W`)
	possessiveRe = regexp.MustCompile(`(\w+)'s\b`)
)

// ExtractCandidates derives potential entity names from a natural
// language query: capitalized tokens, 2- and 3-token windows, known
// lowercase aliases, possessives, self-references, and every stored
// alias. Order is preserved; duplicates are dropped.
func ExtractCandidates(query string, storedAliases []string) []string {
	words := strings.Fields(query)
	queryLower := strings.ToLower(query)

	var candidates []string
	seen := make(map[string]bool)
	add := func(c string) {
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		candidates = append(candidates, c)
	}

	// Single capitalized words
	for _, w := range words {
		clean := nonWordRe.ReplaceAllString(w, "")
		if len(clean) > 1 && startsUpper(clean) {
			add(clean)
		}
	}

	// Two-word windows anchored on a capitalized first token
	// (e.g., "Jim Gardner", "Home Assistant")
	for i := 0; i+1 < len(words); i++ {
		w1 := nonWordRe.ReplaceAllString(words[i], "")
		w2 := nonWordRe.ReplaceAllString(words[i+1], "")
		if w1 != "" && w2 != "" && startsUpper(w1) {
			add(w1 + " " + w2)
		}
	}

	// Three-word windows (e.g., "Adult in Training")
	for i := 0; i+2 < len(words); i++ {
		w1 := nonWordRe.ReplaceAllString(words[i], "")
		w2 := nonWordRe.ReplaceAllString(words[i+1], "")
		w3 := nonWordRe.ReplaceAllString(words[i+2], "")
		if w1 != "" && w2 != "" && w3 != "" {
			add(w1 + " " + w2 + " " + w3)
		}
	}

	// Known lowercase aliases; word-boundary matching keeps "flo" from
	// firing inside "overflow"
	for _, alias := range lowercaseAliases {
		if strings.Contains(alias, " ") {
			if strings.Contains(queryLower, alias) {
				add(alias)
			}
		} else if matchesWholeWord(queryLower, alias) {
			add(alias)
		}
	}

	// Possessives: "Mom's phone" → Mom, skipping contractions
	for _, m := range possessiveRe.FindAllStringSubmatch(query, -1) {
		if !contractionSkip[strings.ToLower(m[1])] {
			add(m[1])
		}
	}

	// Self-reference queries
	for _, phrase := range selfReferencePhrases {
		if strings.Contains(queryLower, phrase) {
			add(SelfEntity)
			break
		}
	}

	// Every stored alias: multi-word as phrase, single-word (3+ chars)
	// on word boundaries
	for _, alias := range storedAliases {
		aliasLower := strings.ToLower(alias)
		if genericAliases[aliasLower] {
			continue
		}
		if strings.Contains(alias, " ") {
			if strings.Contains(queryLower, aliasLower) {
				add(alias)
			}
		} else if len(alias) >= 3 && matchesWholeWord(queryLower, aliasLower) {
			add(alias)
		}
	}

	return candidates
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func matchesWholeWord(text, word string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}
