package ai

import (
	"fmt"
	"strings"
)

// TaskContext carries the customer details handed to the planning service
// alongside the raw query.
type TaskContext struct {
	Email    string
	TicketID string
	Source   string
	Segment  string
	History  []string
}

const systemPrompt = `You are a professional customer support AI agent.
Your goal is to provide excellent customer service while following safety protocols.
For sensitive actions (refunds, account changes, escalations), ALWAYS request human approval.
Be empathetic, professional, and solution-focused.`

// BuildSupportTask renders the task description for a customer query.
func BuildSupportTask(query string, tc TaskContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CUSTOMER QUERY: %s\n\n", query)

	b.WriteString("CUSTOMER CONTEXT:\n")
	fmt.Fprintf(&b, "email: %s\n", tc.Email)
	if tc.Source != "" {
		fmt.Fprintf(&b, "source: %s\n", tc.Source)
	}
	segment := tc.Segment
	if segment == "" {
		segment = "regular"
	}
	fmt.Fprintf(&b, "customer_segment: %s\n", segment)
	if len(tc.History) > 0 {
		fmt.Fprintf(&b, "history: %s\n", strings.Join(tc.History, "; "))
	}

	ticket := tc.TicketID
	if ticket == "" {
		ticket = "New ticket"
	}
	fmt.Fprintf(&b, "\nTICKET ID: %s\n", ticket)

	b.WriteString(`
INSTRUCTIONS:
1. Analyze the customer query and classify its urgency, category, and sentiment
2. Determine if this can be resolved automatically or requires human approval
3. Provide a professional, empathetic response
4. Suggest appropriate follow-up actions

CLASSIFICATION CATEGORIES:
- billing_inquiry, technical_support, product_info, complaint, refund_request, account_update, general_inquiry

URGENCY LEVELS:
- low, medium, high, urgent

SENTIMENT:
- positive, neutral, negative, frustrated, angry
`)

	return b.String()
}
