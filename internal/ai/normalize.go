package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FallbackResponse is returned when the result bag carries no usable payload.
const FallbackResponse = "I've processed your request. Please check the plan details."

// Top-level keys the planning service has been observed to use, in priority
// order.
var payloadKeys = []string{"final_output", "step_outputs", "result", "output", "response", "text"}

// Nested keys probed when a payload value is itself a mapping.
var nestedKeys = []string{"response", "message", "result", "output", "value", "text"}

// Markers in plan output that indicate the suggested action needs a human.
var approvalMarkers = []string{
	"approval", "human approval", "escalate", "refund",
	"sensitive", "policy exception", "management",
}

// ResponseText extracts the customer-facing text from a loosely-typed result
// bag: probe the known top-level keys in order and return the first non-empty
// rendering, else the fixed fallback string.
func ResponseText(bag ResultBag) string {
	for _, key := range payloadKeys {
		val, ok := bag[key]
		if !ok || val == nil {
			continue
		}
		if text := renderValue(val); text != "" {
			return text
		}
	}
	return FallbackResponse
}

func renderValue(val any) string {
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		for _, key := range nestedKeys {
			if nested, ok := v[key]; ok && nested != nil {
				if text := renderValue(nested); text != "" {
					return text
				}
			}
		}
		if encoded, err := json.Marshal(v); err == nil {
			return string(encoded)
		}
		return ""
	case []any:
		if len(v) == 0 {
			return ""
		}
		return renderValue(v[len(v)-1])
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// RequiresApproval reports whether the run result flags the human gate: an
// explicit requires_human_approval field wins, otherwise the output text is
// scanned for approval markers.
func RequiresApproval(bag ResultBag, responseText string) bool {
	switch v := bag["requires_human_approval"].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	text := strings.ToLower(responseText)
	for _, marker := range approvalMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// ClassificationOverride returns the AI-provided classification mapping when
// present and well-formed.
func ClassificationOverride(bag ResultBag) map[string]any {
	if m, ok := bag["classification"].(map[string]any); ok {
		return m
	}
	return nil
}

// SuggestedActions collects action entries from the bag: an explicit
// suggested_actions list plus any step output that carries an "action" key.
func SuggestedActions(bag ResultBag) []map[string]any {
	var actions []map[string]any
	if list, ok := bag["suggested_actions"].([]any); ok {
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				actions = append(actions, m)
			}
		}
	}
	if steps, ok := bag["step_outputs"].([]any); ok {
		for _, step := range steps {
			if m, ok := step.(map[string]any); ok {
				if _, hasAction := m["action"]; hasAction {
					actions = append(actions, m)
				}
			}
		}
	}
	return actions
}
