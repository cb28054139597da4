package triage

import "strings"

// Risk keywords that always route the suggested action through a human gate.
var approvalKeywords = []string{
	"refund",
	"cancel",
	"delete my account",
	"delete account",
	"escalate",
	"manager",
	"complaint",
	"angry",
	"legal",
	"security",
	"fraud",
	"urgent",
}

// Tokens indicating money is involved.
var financialTokens = []string{
	"$", "€", "£",
	"payment",
	"billing",
	"subscription",
	"charge",
}

// RequiresHumanApproval decides whether a query's content must pass the
// human-in-the-loop gate before the AI's suggested action may be executed.
// Pure and deterministic.
func RequiresHumanApproval(query string) bool {
	text := strings.ToLower(query)
	return containsAny(text, approvalKeywords) || containsAny(text, financialTokens)
}
