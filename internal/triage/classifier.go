package triage

import (
	"strings"

	"github.com/spec-kit/support-ai-service/internal/domain"
)

// Classifier maps raw query text to category/urgency/sentiment labels using
// static keyword tables. First match wins, in table order; defaults apply when
// nothing matches, so the result is always fully populated.
type Classifier struct {
	categories []categoryRule
	urgencies  []keywordRule
	sentiments []keywordRule
}

type categoryRule struct {
	category string
	keywords []string
}

type keywordRule struct {
	label    string
	keywords []string
}

const (
	DefaultCategory  = "general_inquiry"
	DefaultUrgency   = "medium"
	DefaultSentiment = "neutral"

	baseConfidence      = 0.7
	confidenceIncrement = 0.1
	longQueryWordCount  = 20
)

var supportKeywords = []string{"help", "support", "issue", "problem", "question"}

// NewClassifier builds a classifier with the default keyword tables.
func NewClassifier() *Classifier {
	return &Classifier{
		categories: []categoryRule{
			{"refund_request", []string{"refund", "money back", "reimburs"}},
			{"billing_inquiry", []string{"billing", "invoice", "charge", "payment", "subscription"}},
			{"technical_support", []string{"error", "bug", "crash", "not working", "broken"}},
			{"account_update", []string{"password", "account", "login", "profile"}},
			{"complaint", []string{"complaint", "terrible", "awful", "worst", "unacceptable"}},
			{"product_info", []string{"how do i", "how to", "feature", "price", "plan"}},
		},
		urgencies: []keywordRule{
			{"urgent", []string{"urgent", "emergency", "critical", "immediately", "asap"}},
			{"high", []string{"high", "important", "priority", "soon"}},
			{"low", []string{"low", "minor", "whenever", "no rush"}},
		},
		sentiments: []keywordRule{
			{"negative", []string{"angry", "frustrated", "upset", "terrible", "awful", "disappointed"}},
			{"positive", []string{"happy", "satisfied", "pleased", "great", "thank"}},
		},
	}
}

// Classify derives a complete classification from the query text. It is pure
// and never fails; empty input yields all defaults.
func (c *Classifier) Classify(query string) domain.Classification {
	text := strings.ToLower(query)

	result := domain.Classification{
		Category:  DefaultCategory,
		Urgency:   DefaultUrgency,
		Sentiment: DefaultSentiment,
	}

	for _, rule := range c.categories {
		if containsAny(text, rule.keywords) {
			result.Category = rule.category
			break
		}
	}
	for _, rule := range c.urgencies {
		if containsAny(text, rule.keywords) {
			result.Urgency = rule.label
			break
		}
	}
	for _, rule := range c.sentiments {
		if containsAny(text, rule.keywords) {
			result.Sentiment = rule.label
			break
		}
	}

	result.Priority = string(PriorityForUrgency(result.Urgency))

	confidence := baseConfidence
	if containsAny(text, supportKeywords) {
		confidence += confidenceIncrement
	}
	if len(strings.Fields(text)) > longQueryWordCount {
		confidence += confidenceIncrement
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	result.Confidence = confidence

	return result
}

// PriorityForUrgency maps a triage urgency label onto the ticket priority enum.
func PriorityForUrgency(urgency string) domain.TicketPriority {
	switch urgency {
	case "urgent":
		return domain.TicketPriorityUrgent
	case "high":
		return domain.TicketPriorityHigh
	case "low":
		return domain.TicketPriorityLow
	default:
		return domain.TicketPriorityMedium
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
