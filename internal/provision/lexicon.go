// Package provision implements the Auto-Provision Pipeline: triviality
// classification, LLM-driven tool spec generation with a fallback stub,
// consensus submission, and registry installation for tools and agents a
// workflow step requested but that the registry does not yet carry.
package provision

import "strings"

// trivialTokens is the fixed lexicon of business-utility categories that
// make a missing-tool request trivial enough to auto-provision without a
// human in the loop.
var trivialTokens = []string{
	"spreadsheet", "calendar", "email", "file", "document", "storage",
	"crm", "analytics", "payment", "webhook", "api", "database",
	"social", "marketing", "automation", "integration", "notification",

	"market", "research", "competitor", "analysis", "trend", "keyword",
	"monitoring", "scan", "opportunity", "demand",

	"hosting", "domain", "registration", "deploy", "server", "cloud",
	"infrastructure", "cdn", "ssl", "certificate",

	"code", "generation", "template", "library", "framework", "build",
	"test", "debug", "version", "git",

	"campaign", "advertising", "ads", "content", "seo", "conversion",
	"funnel", "growth", "viral", "referral", "retention",

	"tracking", "metrics", "dashboard", "reporting", "insights",
	"performance", "optimization", "ab_test", "cohort",
}

// Request describes a missing tool or agent a workflow step asked for.
type Request struct {
	Type   string // "tool" or "agent"
	Name   string
	Reason string // "not_found" or "user_request"
}

// IsTrivial reports whether req is eligible for auto-provisioning: only
// tool requests with reason "not_found" whose name matches the fixed
// lexicon qualify. Agent requests are conservative by default and are
// never considered trivial here.
func IsTrivial(req Request) bool {
	if req.Type != "tool" || req.Reason != "not_found" {
		return false
	}
	name := strings.ToLower(req.Name)
	for _, token := range trivialTokens {
		if strings.Contains(name, token) {
			return true
		}
	}
	return false
}
