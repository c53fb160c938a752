// Package calls handles the phone-outreach channel: parsing the calls
// record export and folding per-email call activity into the reconciled
// email output. The two channels are processed independently; calls never
// gate an email pipeline run.
package calls

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/outreach-analytics/internal/ingest"
	"github.com/ignite/outreach-analytics/internal/pkg/logger"
	"github.com/ignite/outreach-analytics/internal/reconcile"
)

// Calls export column names, as emitted by the dialer.
const (
	ColAssigned    = "Assigned"
	ColDisposition = "Call Disposition"
	ColDate        = "Date"
	ColCompany     = "Company / Account"
	ColContact     = "Contact"
	ColDuration    = "Call Duration (seconds)"
	ColEmail       = "Email"
	ColComments    = "Full Comments"
)

var requiredColumns = []string{
	ColAssigned, ColDisposition, ColDate, ColCompany,
	ColContact, ColDuration, ColEmail, ColComments,
}

// dispositionConnected is the disposition value that counts as a completed
// conversation, compared case-insensitively.
const dispositionConnected = "connected"

// CallRecord is one logged call. CalledAt is zero when the export's date
// cell did not parse; DurationSeconds coerces to 0 on malformed cells.
type CallRecord struct {
	Assigned        string    `json:"assigned"`
	Disposition     string    `json:"disposition"`
	CalledAt        time.Time `json:"called_at"`
	Company         string    `json:"company"`
	Contact         string    `json:"contact"`
	DurationSeconds int       `json:"duration_seconds"`
	Email           string    `json:"email"`
	Comments        string    `json:"comments,omitempty"`
}

// Connected reports whether the call reached the prospect.
func (r CallRecord) Connected() bool {
	return strings.EqualFold(strings.TrimSpace(r.Disposition), dispositionConnected)
}

// Parse loads and validates a calls record CSV. Validation mirrors the
// email sources: an empty file or missing columns abort with messages
// listing what is missing and what is present; cell-level problems coerce
// (zero date, zero duration) and never drop a row.
func Parse(r io.Reader) ([]CallRecord, []string, error) {
	table, err := ingest.ReadCSV(r)
	if err != nil {
		return nil, []string{fmt.Sprintf("Calls: %v", err)}, nil
	}
	if table.Len() == 0 {
		return nil, []string{"Calls: file has no data rows"}, nil
	}

	var missing []string
	for _, col := range requiredColumns {
		if !table.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, []string{fmt.Sprintf(
			"Calls: missing required column(s) %s; columns present: %s",
			strings.Join(missing, ", "),
			strings.Join(table.Columns, ", "))}, nil
	}

	records := make([]CallRecord, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		records = append(records, CallRecord{
			Assigned:        strings.TrimSpace(table.Value(i, ColAssigned)),
			Disposition:     strings.TrimSpace(table.Value(i, ColDisposition)),
			CalledAt:        parseCallDate(table.Value(i, ColDate)),
			Company:         strings.TrimSpace(table.Value(i, ColCompany)),
			Contact:         strings.TrimSpace(table.Value(i, ColContact)),
			DurationSeconds: parseDuration(table.Value(i, ColDuration)),
			Email:           reconcile.NormalizeEmail(table.Value(i, ColEmail)),
			Comments:        table.Value(i, ColComments),
		})
	}

	logger.Info("calls file parsed", "records", len(records))
	return records, nil, nil
}

// callDateFormats extends the sent-date layouts with the date-only forms
// the dialer export uses.
var callDateFormats = []string{
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2006-01-02",
}

func parseCallDate(raw string) time.Time {
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range callDateFormats {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func parseDuration(raw string) int {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int(f)
	}
	return 0
}
