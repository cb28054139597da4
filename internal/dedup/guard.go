package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Entry marks one in-flight submission. TicketID is empty until the pipeline
// has created the ticket and called Attach.
type Entry struct {
	Fingerprint string    `json:"fingerprint"`
	RequestID   string    `json:"request_id"`
	TicketID    string    `json:"ticket_id,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}

// Guard suppresses duplicate concurrent submissions of the same customer+query
// pair inside a short window. Begin reports whether the caller may proceed;
// when it returns false the existing entry identifies the original submission.
// End must be called on every exit path so the window only blocks genuinely
// concurrent duplicates.
type Guard interface {
	Begin(ctx context.Context, fingerprint, requestID string) (existing *Entry, accepted bool, err error)
	Attach(ctx context.Context, fingerprint, ticketID string) error
	End(ctx context.Context, fingerprint string) error
}

// Fingerprint returns the stable hash of (customer_email, query) used as the
// dedup key. A hash collision is treated as a true duplicate; this is a
// best-effort guard, not correctness-critical dedup.
func Fingerprint(customerEmail, query string) string {
	h := sha256.New()
	h.Write([]byte(customerEmail))
	h.Write([]byte{0})
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}
