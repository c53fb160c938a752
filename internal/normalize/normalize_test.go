package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-analytics/internal/ingest"
)

func TestSendsDropsRowsMissingJoinKey(t *testing.T) {
	table := ingest.NewTable(
		[]string{ingest.ColRecipientName, ingest.ColSentDate, ingest.ColRecipientEmail},
		[][]string{
			{"A@X.com", "02/07/2025 19:34:57", "A@X.com"},
			{"", "02/07/2025 19:34:58", "b@y.com"},
			{"c@z.com", "garbage", "c@z.com"},
		},
	)

	records, stats := Sends(table)

	require.Len(t, records, 1)
	assert.Equal(t, 3, stats.RowsIn)
	assert.Equal(t, 1, stats.RowsOut)
	assert.Equal(t, 2, stats.Dropped)

	assert.Equal(t, "a@x.com", records[0].RecipientName, "emails are lower-cased")
	assert.Equal(t, time.Date(2025, 7, 2, 19, 34, 57, 0, time.UTC), records[0].SentAt)
}

func TestOpensCoercesMetrics(t *testing.T) {
	table := ingest.NewTable(
		[]string{ingest.ColRecipientName, ingest.ColSentDate, ingest.ColViews, ingest.ColClicks},
		[][]string{
			{"a@x.com", "02/07/2025 19:35:02", "3", "1"},
			{"a@x.com", "02/07/2025 19:35:09", "", "lots"},
		},
	)

	records, stats := Opens(table)

	require.Len(t, records, 2)
	assert.Zero(t, stats.Dropped)
	assert.Equal(t, 3, records[0].Views)
	assert.Equal(t, 1, records[0].Clicks)
	assert.Equal(t, 0, records[1].Views, "blank coerces to 0")
	assert.Equal(t, 0, records[1].Clicks, "malformed coerces to 0")
}

func TestContactsPassthroughAndDrops(t *testing.T) {
	table := ingest.NewTable(
		[]string{ingest.ColEmail, ingest.ColCompanyURL, ingest.ColName, ingest.ColTitle, "Phone"},
		[][]string{
			{"A@X.com ", "https://x.com", "Alice", "VP Sales", "555-0100"},
			{"", "https://y.com", "Nobody", "", ""},
		},
	)

	records, stats := Contacts(table)

	require.Len(t, records, 1)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, "a@x.com", records[0].Email)
	assert.Equal(t, "https://x.com", records[0].CompanyURL)
	assert.Equal(t, map[string]string{"Phone": "555-0100"}, records[0].Extra)
}

func TestContactsLowerCasesCompanyURL(t *testing.T) {
	table := ingest.NewTable(
		[]string{ingest.ColEmail, ingest.ColCompanyURL},
		[][]string{
			{"a@x.com", "HTTPS://Acme.COM "},
			{"b@y.com", "https://acme.com"},
		},
	)

	records, _ := Contacts(table)

	require.Len(t, records, 2)
	assert.Equal(t, "https://acme.com", records[0].CompanyURL)
	assert.Equal(t, records[0].CompanyURL, records[1].CompanyURL,
		"casing differences must not split a company")
}

func TestNormalizationIsIdempotent(t *testing.T) {
	table := ingest.NewTable(
		[]string{ingest.ColRecipientName, ingest.ColSentDate, ingest.ColRecipientEmail},
		[][]string{{"a@x.com", "02/07/2025 19:34:57", "a@x.com"}},
	)

	first, _ := Sends(table)
	require.Len(t, first, 1)

	// Re-ingest the normalized output and normalize again.
	round := ingest.NewTable(
		[]string{ingest.ColRecipientName, ingest.ColSentDate, ingest.ColRecipientEmail},
		[][]string{{
			first[0].RecipientName,
			ingest.FormatSentDate(first[0].SentAt),
			first[0].RecipientEmail,
		}},
	)
	second, stats := Sends(round)

	require.Len(t, second, 1)
	assert.Zero(t, stats.Dropped)
	assert.Equal(t, first[0], second[0])
}
