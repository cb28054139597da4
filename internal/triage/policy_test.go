package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiresHumanApprovalRiskKeywords(t *testing.T) {
	for _, q := range []string{
		"I want a refund",
		"please cancel my order",
		"delete my account now",
		"escalate this to a manager",
		"I will take legal action",
		"there is fraud on my account",
		"this is urgent",
	} {
		assert.True(t, RequiresHumanApproval(q), "query: %s", q)
	}
}

func TestRequiresHumanApprovalFinancialTokens(t *testing.T) {
	for _, q := range []string{
		"I was charged $50 twice",
		"question about my subscription",
		"the payment did not go through",
		"my billing address changed",
	} {
		assert.True(t, RequiresHumanApproval(q), "query: %s", q)
	}
}

func TestRequiresHumanApprovalNegative(t *testing.T) {
	for _, q := range []string{
		"",
		"how do I change my avatar?",
		"what are your opening hours",
		"thanks for the great service",
	} {
		assert.False(t, RequiresHumanApproval(q), "query: %s", q)
	}
}
