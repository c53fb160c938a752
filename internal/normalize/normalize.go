// Package normalize converts validated tabular frames into typed records.
// Every transform here is idempotent: feeding a normalized export back
// through the pipeline yields the same records.
package normalize

import (
	"strconv"
	"strings"

	"github.com/ignite/outreach-analytics/internal/ingest"
	"github.com/ignite/outreach-analytics/internal/pkg/logger"
	"github.com/ignite/outreach-analytics/internal/reconcile"
)

// Stats reports what one normalization pass did to a frame. Dropped counts
// rows removed for a missing join key; coercion to null never drops a row by
// itself.
type Stats struct {
	RowsIn  int `json:"rows_in"`
	RowsOut int `json:"rows_out"`
	Dropped int `json:"dropped"`
}

// Sends converts the send frame into SendRecords. Rows missing either half
// of the join key (recipient_name, sent_date) are dropped: they can never
// match an open event and would only distort the completeness accounting.
func Sends(table *ingest.Table) ([]reconcile.SendRecord, Stats) {
	stats := Stats{RowsIn: table.Len()}
	records := make([]reconcile.SendRecord, 0, table.Len())

	for i := 0; i < table.Len(); i++ {
		name := reconcile.NormalizeEmail(table.Value(i, ingest.ColRecipientName))
		sentAt, ok := ingest.ParseSentDate(table.Value(i, ingest.ColSentDate))
		if name == "" || !ok {
			stats.Dropped++
			continue
		}
		records = append(records, reconcile.SendRecord{
			RecipientName:  name,
			SentAt:         sentAt,
			RecipientEmail: reconcile.NormalizeEmail(table.Value(i, ingest.ColRecipientEmail)),
			Domain:         strings.TrimSpace(table.Value(i, ingest.ColDomain)),
		})
	}

	stats.RowsOut = len(records)
	logStats("send_mails", stats)
	return records, stats
}

// Opens converts the open frame into OpenRecords, with the same join-key
// drop rule as Sends. Views and Clicks coerce to 0 when blank or malformed.
func Opens(table *ingest.Table) ([]reconcile.OpenRecord, Stats) {
	stats := Stats{RowsIn: table.Len()}
	records := make([]reconcile.OpenRecord, 0, table.Len())

	for i := 0; i < table.Len(); i++ {
		name := reconcile.NormalizeEmail(table.Value(i, ingest.ColRecipientName))
		openedAt, ok := ingest.ParseSentDate(table.Value(i, ingest.ColSentDate))
		if name == "" || !ok {
			stats.Dropped++
			continue
		}
		records = append(records, reconcile.OpenRecord{
			RecipientName: name,
			OpenedAt:      openedAt,
			Views:         toInt(table.Value(i, ingest.ColViews)),
			Clicks:        toInt(table.Value(i, ingest.ColClicks)),
		})
	}

	stats.RowsOut = len(records)
	logStats("open_mails", stats)
	return records, stats
}

// Contacts converts the contact frame into ContactRecords. Email is the only
// required field; rows without one are dropped. Non-canonical columns pass
// through in Extra so exports keep whatever the directory carried.
func Contacts(table *ingest.Table) ([]reconcile.ContactRecord, Stats) {
	stats := Stats{RowsIn: table.Len()}
	records := make([]reconcile.ContactRecord, 0, table.Len())

	known := map[string]bool{
		ingest.ColEmail:      true,
		ingest.ColCompanyURL: true,
		ingest.ColName:       true,
		ingest.ColTitle:      true,
	}

	for i := 0; i < table.Len(); i++ {
		email := reconcile.NormalizeEmail(table.Value(i, ingest.ColEmail))
		if email == "" {
			stats.Dropped++
			continue
		}
		rec := reconcile.ContactRecord{
			Email: email,
			// Company URLs are a join identifier too: company_url_id
			// assignment and per-company rollups group on them, so casing
			// differences must not split a company.
			CompanyURL: strings.ToLower(strings.TrimSpace(table.Value(i, ingest.ColCompanyURL))),
			Name:       strings.TrimSpace(table.Value(i, ingest.ColName)),
			Title:      strings.TrimSpace(table.Value(i, ingest.ColTitle)),
		}
		for _, col := range table.Columns {
			if known[col] {
				continue
			}
			if v := table.Value(i, col); v != "" {
				if rec.Extra == nil {
					rec.Extra = make(map[string]string)
				}
				rec.Extra[col] = v
			}
		}
		records = append(records, rec)
	}

	stats.RowsOut = len(records)
	logStats("contacts", stats)
	return records, stats
}

func logStats(frame string, s Stats) {
	if s.Dropped > 0 {
		logger.Warn("normalization dropped rows", "frame", frame, "rows_in", s.RowsIn, "dropped", s.Dropped)
		return
	}
	logger.Debug("frame normalized", "frame", frame, "rows", s.RowsOut)
}

// toInt coerces a metric cell to an int. Blank and malformed cells become 0.
func toInt(v string) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
