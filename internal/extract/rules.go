package extract

import "strings"

// techPattern pairs a canonical technology name with the surface forms
// that count as a mention. Ordered so detection is deterministic.
type techPattern struct {
	Name     string
	Patterns []string
}

// techPatterns drive `involves` relation detection. Matching is
// case-sensitive containment, first matching pattern wins per entry.
var techPatterns = []techPattern{
	{"Next.js", []string{"Next.js", "next.js", "nextjs"}},
	{"PostgreSQL", []string{"PostgreSQL", "postgres", "Postgres"}},
	{"SQLite", []string{"SQLite", "sqlite"}},
	{"Docker", []string{"Docker", "docker"}},
	{"Caddy", []string{"Caddy", "caddy"}},
	{"Traefik", []string{"Traefik", "traefik"}},
	{"XState", []string{"XState", "xstate"}},
	{"Ghost", []string{"Ghost CMS", "Ghost 5"}},
	{"Ollama", []string{"Ollama", "ollama"}},
	{"Komodo", []string{"Komodo"}},
	{"Postiz", []string{"Postiz"}},
	{"Wix", []string{"Wix API", "Wix"}},
	{"OpenClaw", []string{"OpenClaw", "openclaw", "clawdbot"}},
	{"ClawSmith", []string{"ClawSmith", "clawsmith"}},
	{"React", []string{"React", "react"}},
	{"Python", []string{"Python", "python3"}},
	{"Swift", []string{"Swift", "SwiftUI"}},
	{"Drizzle", []string{"Drizzle ORM", "Drizzle"}},
	{"Tailscale", []string{"Tailscale", "tailscale"}},
	{"fail2ban", []string{"fail2ban"}},
	{"n8n", []string{"n8n"}},
	{"Figma", []string{"Figma", "figma"}},
	{"ElevenLabs", []string{"ElevenLabs"}},
	{"Canva", []string{"Canva"}},
	{"CalDAV", []string{"CalDAV", "vdirsyncer", "khal"}},
}

// projectNames feed `related_to` relation detection (case-insensitive
// containment in section body or title).
var projectNames = []string{
	"Adult in Training", "Microdose Tracker", "ClawSmith", "Project Keystone",
	"Keystone", "Content Pipeline", "Memory Architecture", "ClawForge",
}

// agentNames feed `involves_agent` relation detection (case-insensitive
// containment in section body).
var agentNames = []string{
	"Gandalf", "Toby", "Pete", "Pixel", "Ram Dass", "Social Steven",
	"Ernest", "Beta-tester", "DevOps",
}

// skipHeaders are generic untagged section titles that never become
// entities on their own.
var skipHeaders = map[string]bool{
	"conversation summary": true,
	"key dates":            true,
	"home":                 true,
	"quick checks":         true,
	"rules":                true,
	"notes":                true,
	"summary":              true,
	"context":              true,
}

// categoryRule is one row of the category inference table.
type categoryRule struct {
	Match    func(entity, key, value string) bool
	Category string
}

func entityContains(patterns ...string) func(entity, key, value string) bool {
	return func(entity, _, _ string) bool {
		for _, p := range patterns {
			if strings.Contains(entity, p) {
				return true
			}
		}
		return false
	}
}

func keyIn(keys ...string) func(entity, key, value string) bool {
	return func(_, key, _ string) bool {
		for _, k := range keys {
			if key == k {
				return true
			}
		}
		return false
	}
}

// categoryRules is an ordered table: rules are evaluated top to bottom
// and the first match wins. Extending the ruleset means inserting a row
// at the right priority, not editing branch logic.
var categoryRules = []categoryRule{
	{entityContains("seo", "blog", "post", "content", "social media", "pipeline"), "event"},
	{entityContains("clawsmith", "keystone", "microdose", "adult in training", "clawforge"), "project"},
	{keyIn("birthday", "phone", "email", "address", "birthplace"), "contact"},
	{keyIn("port", "url", "endpoint", "runs_on", "stack", "cron_job_id"), "infrastructure"},
	{keyIn("status"), "event"},
	{func(_, key, value string) bool {
		if key != "type" {
			return false
		}
		switch value {
		case "milestone", "decision", "lesson", "task", "context", "event":
			return true
		}
		return false
	}, "event"},
	{keyIn("date", "importance", "summary"), "event"},
	{entityContains("decision", "lesson", "config", "bug", "fix"), "decision"},
	{entityContains("deploy", "server", "docker", "port", "gpu", "browser", "ollama"), "infrastructure"},
	{entityContains("agent", "toby", "pete", "pixel", "gandalf", "ram dass", "ernest", "devops"), "identity"},
}

// InferCategory classifies a fact from its entity, key, and value using
// the ordered rule table. Falls back to "event", the natural bucket for
// journal-derived entries.
func InferCategory(entity, key, value string) string {
	entity = strings.ToLower(entity)
	key = strings.ToLower(key)
	value = strings.ToLower(value)

	for _, rule := range categoryRules {
		if rule.Match(entity, key, value) {
			return rule.Category
		}
	}
	return "event"
}
