package pipeline

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-analytics/internal/ingest"
	"github.com/ignite/outreach-analytics/internal/reconcile"
)

const sendCSV = `recipient_name,sent_date,Recipient Email,domain
a@x.com,02/07/2025 19:34:57,a@x.com,x.com
b@y.com,02/07/2025 19:40:00,b@y.com,y.com
c@z.com,02/07/2025 19:45:00,c@z.com,z.com
,02/07/2025 19:50:00,dropped@w.com,w.com
`

const openCSV = `recipient_name,sent_date,Views,Clicks
a@x.com,02/07/2025 19:35:02,1,2
b@y.com,02/07/2025 19:40:45,3,0
`

const contactsCSV = `Email,Company URL,Name,Title
a@x.com,https://x.com,Alice,VP Sales
b@y.com,https://y.com,Bob,CTO
`

func srcs(send, open, contacts string) map[ingest.Role]io.Reader {
	m := make(map[ingest.Role]io.Reader)
	if send != "" {
		m[ingest.RoleSendMails] = strings.NewReader(send)
	}
	if open != "" {
		m[ingest.RoleOpenMails] = strings.NewReader(open)
	}
	if contacts != "" {
		m[ingest.RoleContacts] = strings.NewReader(contacts)
	}
	return m
}

func TestProcessEndToEnd(t *testing.T) {
	result, err := Process(context.Background(), srcs(sendCSV, openCSV, contactsCSV))

	require.NoError(t, err)
	require.Len(t, result.Successful, 2)
	require.Len(t, result.Failed, 1)

	// Completeness over normalized sends; the raw count includes the row
	// dropped for a missing recipient.
	assert.Equal(t, 3, len(result.Successful)+len(result.Failed))
	assert.Equal(t, 4, result.OriginalSendCount)
	assert.Equal(t, 2, result.SendOpenSuccessful)

	byEmail := map[string]reconcile.ReconciledRecord{}
	for _, r := range result.Successful {
		byEmail[r.Send.RecipientEmail] = r
	}

	a := byEmail["a@x.com"]
	assert.Equal(t, 1, a.Views)
	assert.Equal(t, 5, a.MatchedOffset)
	assert.Equal(t, 1, a.Phase)
	assert.Equal(t, "Alice", a.Contact.Name)

	b := byEmail["b@y.com"]
	assert.Equal(t, 45, b.MatchedOffset)
	assert.Equal(t, 2, b.Phase)

	assert.Equal(t, reconcile.ReasonNoOpenRecords, result.Failed[0].Reason)
	assert.NotEmpty(t, result.Warnings, "dropped send rows surface as a warning")
}

func TestProcessValidationFailure(t *testing.T) {
	badSend := "recipient_name,Recipient Email\na@x.com,a@x.com\n"
	result, err := Process(context.Background(), srcs(badSend, openCSV, ""))

	require.Error(t, err)
	assert.Nil(t, result)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Messages, 2)
	assert.Contains(t, verr.Messages[0], "sent_date")
	assert.Contains(t, verr.Messages[1], "Missing Contacts CSV file")
}

func TestProcessZeroContactMatchesFailsTheRun(t *testing.T) {
	foreign := "Email,Company URL\nnobody@else.com,https://else.com\n"
	result, err := Process(context.Background(), srcs(sendCSV, openCSV, foreign))

	require.ErrorIs(t, err, reconcile.ErrNoContactsMatched)
	assert.Nil(t, result)
}

func TestProcessWithContactsSkipsContactsFile(t *testing.T) {
	contacts := []reconcile.ContactRecord{
		{Email: "a@x.com", CompanyURL: "https://x.com", Name: "Alice"},
		{Email: "b@y.com", CompanyURL: "https://y.com", Name: "Bob"},
	}

	result, err := ProcessWithContacts(context.Background(), srcs(sendCSV, openCSV, ""), contacts)

	require.NoError(t, err)
	assert.Len(t, result.Successful, 2)
	assert.Equal(t, "Alice", result.Successful[0].Contact.Name)
}

func TestProcessHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Process(ctx, srcs(sendCSV, openCSV, contactsCSV))

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}
