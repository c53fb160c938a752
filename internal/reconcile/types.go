package reconcile

import (
	"fmt"
	"strings"
	"time"
)

// SendRecord is one logged outbound-email event. RecipientName is the join
// key against open events; despite the name it holds an email address,
// because both source exports reuse the same header.
type SendRecord struct {
	RecipientName  string    `json:"recipient_name"`
	SentAt         time.Time `json:"sent_date"`
	RecipientEmail string    `json:"recipient_email"`
	Domain         string    `json:"domain,omitempty"`
}

// OpenRecord is one logged email-open/click event. OpenedAt is the open
// event's logged time; the source file stores it under the same sent_date
// header as the send export.
type OpenRecord struct {
	RecipientName string    `json:"recipient_name"`
	OpenedAt      time.Time `json:"sent_date"`
	Views         int       `json:"views"`
	Clicks        int       `json:"clicks"`
}

// ContactRecord is one row of the contact directory. Email is the lookup
// key; descriptive fields pass through untouched, anything non-canonical
// lands in Extra.
type ContactRecord struct {
	Email      string            `json:"email"`
	CompanyURL string            `json:"company_url"`
	Name       string            `json:"name,omitempty"`
	Title      string            `json:"title,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// SendOpenRecord is a send event successfully correlated with an open event,
// before the contacts join. MatchedOffset is the accepted timestamp offset in
// seconds; Phase records which scan window resolved it.
type SendOpenRecord struct {
	Send          SendRecord `json:"send"`
	Views         int        `json:"views"`
	Clicks        int        `json:"clicks"`
	MatchedOffset int        `json:"matched_offset_seconds"`
	Phase         int        `json:"phase"`
}

// ReconciledRecord is the fully fused output row: send + open + contact
// fields plus the per-run company URL surrogate id.
type ReconciledRecord struct {
	Send          SendRecord    `json:"send"`
	Views         int           `json:"views"`
	Clicks        int           `json:"clicks"`
	MatchedOffset int           `json:"matched_offset_seconds"`
	Phase         int           `json:"phase"`
	Contact       ContactRecord `json:"contact"`
	CompanyURLID  int           `json:"company_url_id"`
}

// FailedRecord is a send record that did not complete the pipeline, tagged
// with a reason from the closed vocabulary below. MatchCount is set only for
// ambiguous-match failures.
type FailedRecord struct {
	Send       SendRecord `json:"send"`
	Reason     string     `json:"failure_reason"`
	MatchCount int        `json:"match_count,omitempty"`
}

// Failure reason vocabulary. Downstream consumers group on these strings;
// anything else is treated as "other" by them, not by this package.
const (
	ReasonNoOpenRecords   = "no_open_records_for_email"
	ReasonNoMatchPhase1   = "no_match_within_11_seconds"
	ReasonNoMatchPhase2   = "no_match_within_60_seconds"
	ReasonContactNotFound = "Send email not found in contacts"
)

// ReasonMultipleMatches formats the Phase-1 ambiguity reason for a given
// second offset (0–11).
func ReasonMultipleMatches(offset int) string {
	return fmt.Sprintf("multiple_matches_at_plus_%d_seconds", offset)
}

// ReasonMultipleMatchesPhase2 formats the Phase-2 ambiguity reason for a
// given second offset (12–60).
func ReasonMultipleMatchesPhase2(offset int) string {
	return fmt.Sprintf("multiple_matches_at_plus_%d_seconds_phase2", offset)
}

// IsAmbiguous reports whether a failure reason marks an ambiguous match.
// Ambiguous failures are final: they are never rescanned in Phase 2.
func IsAmbiguous(reason string) bool {
	return strings.HasPrefix(reason, "multiple_matches_at_plus_")
}

// NormalizeEmail lower-cases and trims an email for join-key comparison.
// Idempotent.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
