package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseTextPlainString(t *testing.T) {
	bag := ResultBag{"final_output": "Here is your answer."}
	assert.Equal(t, "Here is your answer.", ResponseText(bag))
}

func TestResponseTextNestedMapping(t *testing.T) {
	bag := ResultBag{
		"final_output": map[string]any{
			"message": "Nested answer.",
			"other":   "ignored",
		},
	}
	assert.Equal(t, "Nested answer.", ResponseText(bag))
}

func TestResponseTextNestedKeyPriority(t *testing.T) {
	// "response" outranks "message" in the nested fallback list.
	bag := ResultBag{
		"result": map[string]any{
			"message":  "second",
			"response": "first",
		},
	}
	assert.Equal(t, "first", ResponseText(bag))
}

func TestResponseTextSequenceTakesLast(t *testing.T) {
	bag := ResultBag{
		"step_outputs": []any{"step one", "step two", "final step"},
	}
	assert.Equal(t, "final step", ResponseText(bag))
}

func TestResponseTextSequenceOfMappings(t *testing.T) {
	bag := ResultBag{
		"step_outputs": []any{
			map[string]any{"text": "early"},
			map[string]any{"text": "late"},
		},
	}
	assert.Equal(t, "late", ResponseText(bag))
}

func TestResponseTextTopLevelKeyPriority(t *testing.T) {
	// final_output outranks response.
	bag := ResultBag{
		"response":     "lower priority",
		"final_output": "higher priority",
	}
	assert.Equal(t, "higher priority", ResponseText(bag))
}

func TestResponseTextSkipsEmptyValues(t *testing.T) {
	bag := ResultBag{
		"final_output": "",
		"result":       "  ",
		"output":       "usable",
	}
	assert.Equal(t, "usable", ResponseText(bag))
}

func TestResponseTextFallback(t *testing.T) {
	assert.Equal(t, FallbackResponse, ResponseText(ResultBag{}))
	assert.Equal(t, FallbackResponse, ResponseText(ResultBag{"unrelated": "x"}))
	assert.Equal(t, FallbackResponse, ResponseText(ResultBag{"final_output": nil}))
	assert.Equal(t, FallbackResponse, ResponseText(ResultBag{"step_outputs": []any{}}))
}

func TestResponseTextStringifiesScalars(t *testing.T) {
	bag := ResultBag{"result": 42}
	assert.Equal(t, "42", ResponseText(bag))
}

func TestRequiresApprovalExplicitField(t *testing.T) {
	assert.True(t, RequiresApproval(ResultBag{"requires_human_approval": true}, "all good"))
	assert.False(t, RequiresApproval(ResultBag{"requires_human_approval": false}, "all good"))
	assert.True(t, RequiresApproval(ResultBag{"requires_human_approval": "true"}, "all good"))
}

func TestRequiresApprovalFromMarkers(t *testing.T) {
	assert.True(t, RequiresApproval(ResultBag{}, "I will escalate this to management"))
	assert.True(t, RequiresApproval(ResultBag{}, "a refund has been suggested"))
	assert.False(t, RequiresApproval(ResultBag{}, "here is how to reset your password"))
}

func TestClassificationOverride(t *testing.T) {
	bag := ResultBag{
		"classification": map[string]any{"category": "billing_inquiry"},
	}
	override := ClassificationOverride(bag)
	assert.Equal(t, "billing_inquiry", override["category"])

	assert.Nil(t, ClassificationOverride(ResultBag{}))
	assert.Nil(t, ClassificationOverride(ResultBag{"classification": "not a map"}))
}

func TestSuggestedActions(t *testing.T) {
	bag := ResultBag{
		"suggested_actions": []any{
			map[string]any{"action": "send_email"},
			"not a map",
		},
		"step_outputs": []any{
			map[string]any{"action": "escalate_ticket", "target": "tier2"},
			map[string]any{"note": "no action key"},
		},
	}
	actions := SuggestedActions(bag)
	assert.Len(t, actions, 2)
	assert.Equal(t, "send_email", actions[0]["action"])
	assert.Equal(t, "escalate_ticket", actions[1]["action"])
}
