// Package policy classifies tool calls into safe, critical, and unclassified
// tiers so the hook API answers /check_auto_approve through one evaluation
// path instead of duplicating the tool-set branching in every hook program.
package policy

import "strings"

// safeTools always auto-approve without ever reaching the bridge; hooks
// short-circuit on these before calling /check_auto_approve.
var safeTools = map[string]bool{
	"read":       true,
	"list_files": true,
	"search":     true,
	"grep":       true,
	"glob":       true,
	"view":       true,
}

// criticalTools always skip the per-session auto-approve check, even if the
// session has auto_approve=true, and must go through an interactive
// approval.
var criticalTools = map[string]bool{
	"bash":    true,
	"write":   true,
	"edit":    true,
	"execute": true,
}

// IsSafe reports whether tool is in SAFE_TOOLS.
func IsSafe(tool string) bool {
	return safeTools[strings.ToLower(strings.TrimSpace(tool))]
}

// IsCritical reports whether tool is in CRITICAL_TOOLS.
func IsCritical(tool string) bool {
	return criticalTools[strings.ToLower(strings.TrimSpace(tool))]
}

// Decision is the result of evaluating whether a tool call may skip an
// interactive approval.
type Decision struct {
	AutoApprove bool
	Reason      string
}

// Evaluate decides whether tool may be auto-approved for an agent whose
// session has the given sticky auto_approve flag.
func Evaluate(tool string, sessionAutoApprove bool) Decision {
	if IsSafe(tool) {
		return Decision{AutoApprove: true, Reason: "safe_tool"}
	}
	if IsCritical(tool) {
		return Decision{AutoApprove: false, Reason: "critical_tool_requires_approval"}
	}
	if sessionAutoApprove {
		return Decision{AutoApprove: true, Reason: "session_auto_approve"}
	}
	return Decision{AutoApprove: false, Reason: "interactive_approval_required"}
}
