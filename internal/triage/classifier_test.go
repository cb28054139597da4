package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/support-ai-service/internal/domain"
)

func TestClassifyDefaults(t *testing.T) {
	c := NewClassifier()

	result := c.Classify("")

	assert.Equal(t, DefaultCategory, result.Category)
	assert.Equal(t, DefaultUrgency, result.Urgency)
	assert.Equal(t, DefaultSentiment, result.Sentiment)
	assert.Equal(t, "MEDIUM", result.Priority)
	assert.InDelta(t, 0.7, result.Confidence, 0.001)
}

func TestClassifyCategories(t *testing.T) {
	c := NewClassifier()

	cases := []struct {
		query    string
		category string
	}{
		{"I want a refund for my last order", "refund_request"},
		{"My invoice looks wrong", "billing_inquiry"},
		{"The app keeps showing an error", "technical_support"},
		{"I cannot reset my password", "account_update"},
		{"This is unacceptable service", "complaint"},
		{"How do I export my data?", "product_info"},
		{"Hello there", "general_inquiry"},
	}

	for _, tc := range cases {
		result := c.Classify(tc.query)
		assert.Equal(t, tc.category, result.Category, "query: %s", tc.query)
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	c := NewClassifier()

	// Contains both refund and billing keywords; refund_request is first in
	// the table and must win.
	result := c.Classify("refund the payment please")
	assert.Equal(t, "refund_request", result.Category)
}

func TestClassifyUrgencyAndSentiment(t *testing.T) {
	c := NewClassifier()

	result := c.Classify("this is urgent, I am very frustrated")
	assert.Equal(t, "urgent", result.Urgency)
	assert.Equal(t, "negative", result.Sentiment)
	assert.Equal(t, "URGENT", result.Priority)

	result = c.Classify("thank you, no rush at all")
	assert.Equal(t, "low", result.Urgency)
	assert.Equal(t, "positive", result.Sentiment)
}

func TestClassifyConfidenceBounds(t *testing.T) {
	c := NewClassifier()

	// Support keyword bumps confidence.
	result := c.Classify("I need help")
	assert.InDelta(t, 0.8, result.Confidence, 0.001)

	// Long query with support keyword gets both increments.
	long := "I need help because my account is locked and I have tried everything " +
		"including resetting the password twice and contacting the billing team already"
	result = c.Classify(long)
	assert.InDelta(t, 0.9, result.Confidence, 0.001)

	// Confidence never exceeds 1.0.
	for _, q := range []string{"", "help", long} {
		r := c.Classify(q)
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
	}
}

func TestClassifyAlwaysPopulated(t *testing.T) {
	c := NewClassifier()

	for _, q := range []string{"", "x", "refund urgent angry $"} {
		result := c.Classify(q)
		assert.NotEmpty(t, result.Category)
		assert.NotEmpty(t, result.Urgency)
		assert.NotEmpty(t, result.Sentiment)
		assert.NotEmpty(t, result.Priority)
	}
}

func TestPriorityForUrgency(t *testing.T) {
	assert.Equal(t, domain.TicketPriorityUrgent, PriorityForUrgency("urgent"))
	assert.Equal(t, domain.TicketPriorityHigh, PriorityForUrgency("high"))
	assert.Equal(t, domain.TicketPriorityLow, PriorityForUrgency("low"))
	assert.Equal(t, domain.TicketPriorityMedium, PriorityForUrgency("medium"))
	assert.Equal(t, domain.TicketPriorityMedium, PriorityForUrgency("unknown"))
}
