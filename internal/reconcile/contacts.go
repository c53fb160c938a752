package reconcile

import (
	"errors"

	"github.com/ignite/outreach-analytics/internal/pkg/logger"
)

// ErrNoContactsMatched signals that not a single send-open record found its
// contact. A 0% match rate means the wrong contacts file was supplied, so the
// whole run fails rather than returning an empty-but-valid table.
var ErrNoContactsMatched = errors.New("no contacts matched any send records; verify the contacts file belongs to this data set")

// JoinContacts merges contact-directory fields into each send-open record by
// exact normalized-email lookup. On duplicate contact emails the first
// occurrence wins. Records without a contact become failures; matched records
// then receive company_url_id surrogates via AssignCompanyIDs.
func JoinContacts(records []SendOpenRecord, contacts []ContactRecord) ([]ReconciledRecord, []FailedRecord, error) {
	lookup := make(map[string]ContactRecord, len(contacts))
	for _, c := range contacts {
		key := NormalizeEmail(c.Email)
		if _, exists := lookup[key]; !exists {
			lookup[key] = c
		}
	}

	reconciled := make([]ReconciledRecord, 0, len(records))
	var failed []FailedRecord

	for _, rec := range records {
		contact, ok := lookup[NormalizeEmail(rec.Send.RecipientEmail)]
		if !ok {
			failed = append(failed, FailedRecord{Send: rec.Send, Reason: ReasonContactNotFound})
			continue
		}
		reconciled = append(reconciled, ReconciledRecord{
			Send:          rec.Send,
			Views:         rec.Views,
			Clicks:        rec.Clicks,
			MatchedOffset: rec.MatchedOffset,
			Phase:         rec.Phase,
			Contact:       contact,
		})
	}

	if len(records) > 0 && len(reconciled) == 0 {
		logger.Error("contacts join matched zero records", "send_open_records", len(records), "contacts", len(contacts))
		return nil, nil, ErrNoContactsMatched
	}

	AssignCompanyIDs(reconciled)

	logger.Info("contacts join complete",
		"matched", len(reconciled),
		"unmatched", len(failed),
		"contacts", len(contacts))

	return reconciled, failed, nil
}

// AssignCompanyIDs enumerates distinct company URLs among the reconciled
// records in first-seen order and stamps each record with the 1-based id.
// An empty URL is a distinct value like any other.
func AssignCompanyIDs(records []ReconciledRecord) {
	ids := make(map[string]int)
	for i := range records {
		url := records[i].Contact.CompanyURL
		id, ok := ids[url]
		if !ok {
			id = len(ids) + 1
			ids[url] = id
		}
		records[i].CompanyURLID = id
	}
}
