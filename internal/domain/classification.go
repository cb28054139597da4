package domain

// Classification is the transient triage result derived from a query. It is
// never persisted on its own; fields are merged into tickets and conversation
// metadata.
type Classification struct {
	Category      string  `json:"category"`
	Priority      string  `json:"priority"`
	Urgency       string  `json:"urgency"`
	Sentiment     string  `json:"sentiment"`
	Confidence    float64 `json:"confidence"`
	CloudEnhanced string  `json:"cloud_enhanced,omitempty"`
}
