package calls

import (
	"time"

	"github.com/ignite/outreach-analytics/internal/pkg/logger"
	"github.com/ignite/outreach-analytics/internal/reconcile"
)

// Activity is the per-email call rollup merged onto reconciled email
// records. LatestCallAt is the most recent call for that email.
type Activity struct {
	TotalCalls           int       `json:"total_calls"`
	ConnectedCalls       int       `json:"connected_calls"`
	TotalDurationSeconds int       `json:"total_duration_seconds"`
	LatestCallAt         time.Time `json:"latest_call_at,omitempty"`
}

// EmailWithCalls is one reconciled email record annotated with the call
// activity for its recipient. Activity is zero-valued when the recipient
// was never called.
type EmailWithCalls struct {
	Record reconcile.ReconciledRecord `json:"record"`
	Calls  Activity                   `json:"calls"`
}

// JoinStats summarizes one email/calls join.
type JoinStats struct {
	TotalEmailRecords     int     `json:"total_email_records"`
	TotalCallRecords      int     `json:"total_call_records"`
	JoinedRecords         int     `json:"joined_records"`
	EmailOnlyRecords      int     `json:"email_only_records"`
	CallsOnlyRecords      int     `json:"calls_only_records"`
	UniqueEmailsWithCalls int     `json:"unique_emails_with_calls"`
	JoinSuccessRate       float64 `json:"join_success_rate"`
	CallsJoinRate         float64 `json:"calls_join_rate"`
}

// AggregateByEmail rolls call records up per normalized email. Rows with
// no email cannot join anything and are left out of the rollup.
func AggregateByEmail(records []CallRecord) map[string]Activity {
	byEmail := make(map[string]Activity)
	for _, r := range records {
		if r.Email == "" {
			continue
		}
		a := byEmail[r.Email]
		a.TotalCalls++
		if r.Connected() {
			a.ConnectedCalls++
		}
		a.TotalDurationSeconds += r.DurationSeconds
		if r.CalledAt.After(a.LatestCallAt) {
			a.LatestCallAt = r.CalledAt
		}
		byEmail[r.Email] = a
	}
	return byEmail
}

// JoinEmails left-joins per-email call activity onto the reconciled email
// table. Every email record comes back annotated; recipients without calls
// carry a zero Activity. The stats also count calls-only rows, i.e. called
// prospects that never appear in the email output.
func JoinEmails(emails []reconcile.ReconciledRecord, records []CallRecord) ([]EmailWithCalls, JoinStats) {
	activity := AggregateByEmail(records)

	stats := JoinStats{
		TotalEmailRecords:     len(emails),
		TotalCallRecords:      len(records),
		UniqueEmailsWithCalls: len(activity),
	}

	joined := make([]EmailWithCalls, 0, len(emails))
	emailSet := make(map[string]bool, len(emails))
	matchedEmails := make(map[string]bool)

	for _, rec := range emails {
		key := reconcile.NormalizeEmail(rec.Send.RecipientEmail)
		emailSet[key] = true

		a := activity[key]
		joined = append(joined, EmailWithCalls{Record: rec, Calls: a})
		if a.TotalCalls > 0 {
			stats.JoinedRecords++
			matchedEmails[key] = true
		} else {
			stats.EmailOnlyRecords++
		}
	}

	for _, r := range records {
		if r.Email != "" && !emailSet[r.Email] {
			stats.CallsOnlyRecords++
		}
	}

	if stats.TotalEmailRecords > 0 {
		stats.JoinSuccessRate = float64(stats.JoinedRecords) / float64(stats.TotalEmailRecords) * 100
	}
	if stats.UniqueEmailsWithCalls > 0 {
		stats.CallsJoinRate = float64(len(matchedEmails)) / float64(stats.UniqueEmailsWithCalls) * 100
	}

	logger.Info("email/calls join complete",
		"email_records", stats.TotalEmailRecords,
		"call_records", stats.TotalCallRecords,
		"joined", stats.JoinedRecords,
		"calls_only", stats.CallsOnlyRecords)

	return joined, stats
}

// Overlap describes how the two channels' contact sets intersect. Email
// contacts are recipient emails; call contacts come from the Contact
// column, which the dialer fills with the prospect's email.
type Overlap struct {
	OverlapContacts     int     `json:"overlap_contacts"`
	EmailOnlyContacts   int     `json:"email_only_contacts"`
	CallsOnlyContacts   int     `json:"calls_only_contacts"`
	TotalUniqueContacts int     `json:"total_unique_contacts"`
	OverlapPercentage   float64 `json:"overlap_percentage"`
}

// AnalyzeOverlap computes the cross-channel contact intersection.
func AnalyzeOverlap(emails []reconcile.ReconciledRecord, records []CallRecord) Overlap {
	emailContacts := make(map[string]bool)
	for _, rec := range emails {
		if e := reconcile.NormalizeEmail(rec.Send.RecipientEmail); e != "" {
			emailContacts[e] = true
		}
	}
	callContacts := make(map[string]bool)
	for _, r := range records {
		if c := reconcile.NormalizeEmail(r.Contact); c != "" {
			callContacts[c] = true
		}
	}

	var o Overlap
	for c := range callContacts {
		if emailContacts[c] {
			o.OverlapContacts++
		} else {
			o.CallsOnlyContacts++
		}
	}
	o.EmailOnlyContacts = len(emailContacts) - o.OverlapContacts
	o.TotalUniqueContacts = len(emailContacts) + o.CallsOnlyContacts
	if o.TotalUniqueContacts > 0 {
		o.OverlapPercentage = float64(o.OverlapContacts) / float64(o.TotalUniqueContacts) * 100
	}
	return o
}

// Combined is the cross-channel outreach rollup.
type Combined struct {
	TotalOutreach         int     `json:"total_outreach"`
	EmailSends            int     `json:"email_sends"`
	TotalCalls            int     `json:"total_calls"`
	EmailViews            int     `json:"email_views"`
	EmailClicks           int     `json:"email_clicks"`
	ConnectedCalls        int     `json:"connected_calls"`
	UniqueContactsReached int     `json:"unique_contacts_reached"`
	CrossChannelContacts  int     `json:"cross_channel_contacts"`
	Overlap               Overlap `json:"overlap"`
}

// CombinedMetrics totals outreach activity across both channels.
func CombinedMetrics(emails []reconcile.ReconciledRecord, records []CallRecord) Combined {
	c := Combined{
		EmailSends: len(emails),
		TotalCalls: len(records),
	}
	for _, rec := range emails {
		c.EmailViews += rec.Views
		c.EmailClicks += rec.Clicks
	}
	for _, r := range records {
		if r.Connected() {
			c.ConnectedCalls++
		}
	}
	c.TotalOutreach = c.EmailSends + c.TotalCalls

	c.Overlap = AnalyzeOverlap(emails, records)
	c.UniqueContactsReached = c.Overlap.TotalUniqueContacts
	c.CrossChannelContacts = c.Overlap.OverlapContacts
	return c
}
