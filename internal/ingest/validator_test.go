package ingest

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sendCSV = `Recipient,Sent Date,Email,Domain
a@x.com,02/07/2025 19:34:57,a@x.com,x.com
b@y.com,02/07/2025 19:40:03,b@y.com,y.com
`

const openCSV = `recipient_name,sent_date,Opens,clicks
a@x.com,02/07/2025 19:35:02,1,2
`

const contactsCSV = `Email Address,Website,Full Name,Job Title
a@x.com,https://x.com,Alice,VP Sales
`

func sources(send, open, contacts string) map[Role]io.Reader {
	m := make(map[Role]io.Reader)
	if send != "" {
		m[RoleSendMails] = strings.NewReader(send)
	}
	if open != "" {
		m[RoleOpenMails] = strings.NewReader(open)
	}
	if contacts != "" {
		m[RoleContacts] = strings.NewReader(contacts)
	}
	return m
}

func TestValidateSourcesAliasing(t *testing.T) {
	res := ValidateSources(sources(sendCSV, openCSV, contactsCSV))

	require.True(t, res.Valid(), "errors: %v", res.Errors)
	require.Len(t, res.Frames, 3)

	send := res.Frames[RoleSendMails]
	assert.True(t, send.HasColumn(ColRecipientName))
	assert.True(t, send.HasColumn(ColSentDate))
	assert.True(t, send.HasColumn(ColRecipientEmail))
	assert.True(t, send.HasColumn(ColDomain))
	assert.Equal(t, "a@x.com", send.Value(0, ColRecipientName))

	open := res.Frames[RoleOpenMails]
	assert.True(t, open.HasColumn(ColViews), "Opens should alias to Views")
	assert.True(t, open.HasColumn(ColClicks))
	assert.Equal(t, "1", open.Value(0, ColViews))

	contacts := res.Frames[RoleContacts]
	assert.True(t, contacts.HasColumn(ColEmail))
	assert.True(t, contacts.HasColumn(ColCompanyURL))
	assert.True(t, contacts.HasColumn(ColName))
	assert.True(t, contacts.HasColumn(ColTitle))
}

func TestValidateSourcesCanonicalHeadersAcceptedDirectly(t *testing.T) {
	send := "recipient_name,sent_date,Recipient Email\na@x.com,02/07/2025 19:34:57,a@x.com\n"
	res := ValidateSources(sources(send, openCSV, contactsCSV))
	require.True(t, res.Valid(), "errors: %v", res.Errors)
}

func TestValidateSourcesMissingColumn(t *testing.T) {
	badSend := "Recipient,Sent Date\na@x.com,02/07/2025 19:34:57\n"
	res := ValidateSources(sources(badSend, openCSV, contactsCSV))

	require.False(t, res.Valid())
	require.Len(t, res.Errors, 1)
	// The message names both the missing canonical column and what is present.
	assert.Contains(t, res.Errors[0], "Recipient Email")
	assert.Contains(t, res.Errors[0], "columns present")
	assert.Contains(t, res.Errors[0], "recipient_name")
}

func TestValidateSourcesMissingAndEmptyFiles(t *testing.T) {
	res := ValidateSources(sources(sendCSV, "", "Email\n"))

	require.False(t, res.Valid())
	assert.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "no data rows")
	// Missing-file messages are listed at the end.
	assert.Contains(t, res.Errors[1], "Missing Open Mails CSV file")
}

func TestValidateSourcesAccumulatesAcrossFiles(t *testing.T) {
	badSend := "Recipient\na@x.com\n"
	badOpen := "recipient_name\na@x.com\n"
	res := ValidateSources(sources(badSend, badOpen, contactsCSV))

	require.False(t, res.Valid())
	assert.Len(t, res.Errors, 2, "one error per bad file, reported together")
}

func TestSpotCheckWarnings(t *testing.T) {
	badDates := "Recipient,Sent Date,Email\na@x.com,July 2 2025,a@x.com\n"
	badOpens := "recipient_name,sent_date,Views,Clicks\na@x.com,02/07/2025 19:35:02,many,0\n"
	res := ValidateSources(sources(badDates, badOpens, contactsCSV))

	// Spot-check problems are warnings, not errors.
	require.True(t, res.Valid(), "errors: %v", res.Errors)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "unparseable sent_date")
	assert.Contains(t, res.Warnings[1], "non-numeric Views/Clicks")
}

func TestParseSentDateFormats(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"02/07/2025 19:34:57", true},
		{"2025-07-02 19:34:57", true},
		{"", false},
		{"07/02/2025", false},
		{"not a date", false},
	}
	for _, tt := range tests {
		_, ok := ParseSentDate(tt.in)
		assert.Equal(t, tt.ok, ok, "ParseSentDate(%q)", tt.in)
	}

	// Day/month ordering: 02/07 is July 2nd, not February 7th.
	ts, ok := ParseSentDate("02/07/2025 19:34:57")
	require.True(t, ok)
	assert.Equal(t, 7, int(ts.Month()))
	assert.Equal(t, 2, ts.Day())
}

func TestReadCSVStripsBOM(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("\uFEFFEmail\na@x.com\n"))
	require.NoError(t, err)
	assert.True(t, table.HasColumn("Email"))
}
