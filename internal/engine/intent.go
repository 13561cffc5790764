package engine

import (
	"regexp"
	"strings"
)

// intentPattern maps a fact-key intent to the query patterns that imply
// it. Patterns are regexes matched against the lowercased query.
type intentPattern struct {
	Intent   string
	Patterns []*regexp.Regexp
}

func compilePatterns(exprs ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		res[i] = regexp.MustCompile(e)
	}
	return res
}

// intentPatterns is ordered so multi-intent queries report intents in a
// stable order.
var intentPatterns = []intentPattern{
	{"birthday", compilePatterns("birthday", "born", "birth", "birthdate", `when was .* born`)},
	{"phone", compilePatterns("phone", "number", "call", "contact", "reach")},
	{"email", compilePatterns("email", "mail", `address.*@`, "contact")},
	{"address", compilePatterns("address", "live", "lives", `where does .* live`, "location")},
	{"birthplace", compilePatterns("birthplace", "born in", `where was .* born`, "from", "origin")},
	{"relationship", compilePatterns("who is", "relationship", "partner", "wife", "husband", "girlfriend")},
	{"url", compilePatterns("url", "website", "domain", "site")},
	{"stack", compilePatterns("stack", "tech", "built with", "uses", "framework")},
	{"runs_on", compilePatterns("port", "runs on", "hosted", "server")},
	{"role", compilePatterns("role", `what does .* do`, "job")},
	{"full_name", compilePatterns("full name", "real name", "name")},
}

// ExtractIntents returns the fact keys a query appears to ask about. A
// query may carry several intents; none is also fine.
func ExtractIntents(query string) []string {
	queryLower := strings.ToLower(query)

	var intents []string
	for _, p := range intentPatterns {
		for _, re := range p.Patterns {
			if re.MatchString(queryLower) {
				intents = append(intents, p.Intent)
				break
			}
		}
	}
	return intents
}
