// Package export writes reconciliation results out as CSV files, locally
// and optionally to S3.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/ignite/outreach-analytics/internal/ingest"
	"github.com/ignite/outreach-analytics/internal/reconcile"
)

// WriteSuccessfulCSV renders the successful table: send fields, open
// metrics, contact fields, then the company id. Non-canonical contact
// columns append after the fixed set, sorted by name.
func WriteSuccessfulCSV(w io.Writer, records []reconcile.ReconciledRecord) error {
	extras := extraColumns(records)

	header := []string{
		ingest.ColRecipientName, ingest.ColSentDate, ingest.ColRecipientEmail, ingest.ColDomain,
		ingest.ColViews, ingest.ColClicks,
		ingest.ColEmail, ingest.ColCompanyURL, ingest.ColName, ingest.ColTitle,
	}
	header = append(header, extras...)
	header = append(header, "Company URL ID")

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write successful header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Send.RecipientName,
			ingest.FormatSentDate(r.Send.SentAt),
			r.Send.RecipientEmail,
			r.Send.Domain,
			strconv.Itoa(r.Views),
			strconv.Itoa(r.Clicks),
			r.Contact.Email,
			r.Contact.CompanyURL,
			r.Contact.Name,
			r.Contact.Title,
		}
		for _, col := range extras {
			row = append(row, r.Contact.Extra[col])
		}
		row = append(row, strconv.Itoa(r.CompanyURLID))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write successful row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFailedCSV renders the failed table: send fields plus the failure
// reason and, when set, the ambiguous match count.
func WriteFailedCSV(w io.Writer, records []reconcile.FailedRecord) error {
	header := []string{
		ingest.ColRecipientName, ingest.ColSentDate, ingest.ColRecipientEmail, ingest.ColDomain,
		"failure_reason", "match_count",
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write failed header: %w", err)
	}

	for _, r := range records {
		count := ""
		if r.MatchCount > 0 {
			count = strconv.Itoa(r.MatchCount)
		}
		row := []string{
			r.Send.RecipientName,
			ingest.FormatSentDate(r.Send.SentAt),
			r.Send.RecipientEmail,
			r.Send.Domain,
			r.Reason,
			count,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write failed row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func extraColumns(records []reconcile.ReconciledRecord) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		for col := range r.Contact.Extra {
			seen[col] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for col := range seen {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
