package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sendOpen(email string) SendOpenRecord {
	return SendOpenRecord{
		Send:  SendRecord{RecipientName: email, SentAt: base, RecipientEmail: email},
		Views: 1,
	}
}

func TestJoinContactsMergesFields(t *testing.T) {
	records := []SendOpenRecord{sendOpen("a@x.com"), sendOpen("b@y.com")}
	contacts := []ContactRecord{
		{Email: "A@X.com", CompanyURL: "https://x.com", Name: "Alice", Title: "VP Sales"},
	}

	reconciled, failed, err := JoinContacts(records, contacts)

	require.NoError(t, err)
	require.Len(t, reconciled, 1)
	assert.Equal(t, "Alice", reconciled[0].Contact.Name)
	assert.Equal(t, "https://x.com", reconciled[0].Contact.CompanyURL)
	assert.Equal(t, 1, reconciled[0].CompanyURLID)

	require.Len(t, failed, 1)
	assert.Equal(t, ReasonContactNotFound, failed[0].Reason)
	assert.Equal(t, "b@y.com", failed[0].Send.RecipientEmail)
}

func TestJoinContactsFirstDuplicateWins(t *testing.T) {
	records := []SendOpenRecord{sendOpen("a@x.com")}
	contacts := []ContactRecord{
		{Email: "a@x.com", Name: "First"},
		{Email: "a@x.com", Name: "Second"},
	}

	reconciled, _, err := JoinContacts(records, contacts)

	require.NoError(t, err)
	require.Len(t, reconciled, 1)
	assert.Equal(t, "First", reconciled[0].Contact.Name)
}

func TestJoinContactsZeroMatchesIsPipelineError(t *testing.T) {
	records := []SendOpenRecord{sendOpen("a@x.com"), sendOpen("b@y.com")}
	contacts := []ContactRecord{{Email: "nobody@else.com"}}

	reconciled, failed, err := JoinContacts(records, contacts)

	require.ErrorIs(t, err, ErrNoContactsMatched)
	assert.Nil(t, reconciled)
	assert.Nil(t, failed)
}

func TestJoinContactsEmptyInputIsNotAnError(t *testing.T) {
	reconciled, failed, err := JoinContacts(nil, []ContactRecord{{Email: "a@x.com"}})

	require.NoError(t, err)
	assert.Empty(t, reconciled)
	assert.Empty(t, failed)
}

func TestAssignCompanyIDsFirstSeenOrder(t *testing.T) {
	records := []ReconciledRecord{
		{Contact: ContactRecord{CompanyURL: "https://x.com"}},
		{Contact: ContactRecord{CompanyURL: "https://y.com"}},
		{Contact: ContactRecord{CompanyURL: "https://x.com"}},
		{Contact: ContactRecord{CompanyURL: ""}},
		{Contact: ContactRecord{CompanyURL: "https://z.com"}},
	}

	AssignCompanyIDs(records)

	assert.Equal(t, 1, records[0].CompanyURLID)
	assert.Equal(t, 2, records[1].CompanyURLID)
	assert.Equal(t, 1, records[2].CompanyURLID)
	assert.Equal(t, 3, records[3].CompanyURLID, "empty URL gets its own id")
	assert.Equal(t, 4, records[4].CompanyURLID)

	// Distinct URLs map to unique positive ids.
	seen := map[string]int{}
	for _, r := range records {
		url := r.Contact.CompanyURL
		if prev, ok := seen[url]; ok {
			assert.Equal(t, prev, r.CompanyURLID)
		} else {
			seen[url] = r.CompanyURLID
		}
		assert.Positive(t, r.CompanyURLID)
	}
}

func TestMergeFailuresAndCountByReason(t *testing.T) {
	matchFailures := []FailedRecord{
		{Reason: ReasonNoOpenRecords},
		{Reason: ReasonNoMatchPhase2},
		{Reason: ReasonNoOpenRecords},
	}
	joinFailures := []FailedRecord{{Reason: ReasonContactNotFound}}

	merged := MergeFailures(matchFailures, joinFailures)
	require.Len(t, merged, 4)

	counts := CountByReason(merged)
	assert.Equal(t, 2, counts[ReasonNoOpenRecords])
	assert.Equal(t, 1, counts[ReasonNoMatchPhase2])
	assert.Equal(t, 1, counts[ReasonContactNotFound])
}

func TestIsAmbiguous(t *testing.T) {
	assert.True(t, IsAmbiguous(ReasonMultipleMatches(5)))
	assert.True(t, IsAmbiguous(ReasonMultipleMatchesPhase2(30)))
	assert.False(t, IsAmbiguous(ReasonNoMatchPhase1))
	assert.False(t, IsAmbiguous(ReasonContactNotFound))
}
