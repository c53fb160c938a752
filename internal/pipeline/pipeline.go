// Package pipeline wires validation, normalization, matching and the
// contacts join into one synchronous run. A run is a pure function of its
// inputs; callers own any caching or persistence of the result.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ignite/outreach-analytics/internal/ingest"
	"github.com/ignite/outreach-analytics/internal/normalize"
	"github.com/ignite/outreach-analytics/internal/pkg/logger"
	"github.com/ignite/outreach-analytics/internal/reconcile"
)

// ValidationError aborts a run before any matching happens. Messages are
// human-readable and cover every problem found across all source files.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("input validation failed: %s", strings.Join(e.Messages, "; "))
}

// Result is the complete output of one run.
//
// OriginalSendCount is the raw row count of the send file before
// normalization; Successful plus Failed always equals the normalized send
// count. SendOpenSuccessful counts records that survived send/open matching
// before the contacts join, for intermediate KPI reporting.
type Result struct {
	Successful         []reconcile.ReconciledRecord `json:"successful"`
	Failed             []reconcile.FailedRecord     `json:"failed"`
	Warnings           []string                     `json:"warnings,omitempty"`
	OriginalSendCount  int                          `json:"original_send_count"`
	SendOpenSuccessful int                          `json:"send_open_successful"`
}

// Process runs the full pipeline over CSV sources for all three roles.
// It returns a *ValidationError when the inputs are structurally unusable,
// reconcile.ErrNoContactsMatched when the contacts file matches nothing,
// and a populated Result otherwise.
func Process(ctx context.Context, sources map[ingest.Role]io.Reader) (*Result, error) {
	res := ingest.ValidateSources(sources)
	if !res.Valid() {
		return nil, &ValidationError{Messages: res.Errors}
	}
	contacts, _ := normalize.Contacts(res.Frames[ingest.RoleContacts])
	return run(ctx, res, contacts)
}

// ProcessWithContacts runs the pipeline with an out-of-band contact
// directory (e.g. pulled from the warehouse) instead of a contacts CSV.
// Only the send and open roles are read from sources.
func ProcessWithContacts(ctx context.Context, sources map[ingest.Role]io.Reader, contacts []reconcile.ContactRecord) (*Result, error) {
	scoped := map[ingest.Role]io.Reader{
		ingest.RoleSendMails: sources[ingest.RoleSendMails],
		ingest.RoleOpenMails: sources[ingest.RoleOpenMails],
	}

	res := ingest.ValidateSources(scoped)
	// The contacts role is supplied directly, so its missing-file message
	// does not apply.
	res.Errors = dropContactsMissing(res.Errors)
	if !res.Valid() {
		return nil, &ValidationError{Messages: res.Errors}
	}
	return run(ctx, res, contacts)
}

func run(ctx context.Context, res *ingest.Result, contacts []reconcile.ContactRecord) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sendFrame := res.Frames[ingest.RoleSendMails]
	sends, sendStats := normalize.Sends(sendFrame)
	opens, _ := normalize.Opens(res.Frames[ingest.RoleOpenMails])

	matched, matchFailed := reconcile.MatchSendOpen(sends, opens)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	successful, joinFailed, err := reconcile.JoinContacts(matched, contacts)
	if err != nil {
		return nil, err
	}

	out := &Result{
		Successful:         successful,
		Failed:             reconcile.MergeFailures(matchFailed, joinFailed),
		Warnings:           res.Warnings,
		OriginalSendCount:  sendStats.RowsIn,
		SendOpenSuccessful: len(matched),
	}
	if sendStats.Dropped > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf(
			"%d send rows dropped during normalization (missing recipient or unparseable date)", sendStats.Dropped))
	}

	logger.Info("pipeline run complete",
		"original_send_count", out.OriginalSendCount,
		"successful", len(out.Successful),
		"failed", len(out.Failed),
		"warnings", len(out.Warnings))

	return out, nil
}

func dropContactsMissing(errs []string) []string {
	var kept []string
	for _, e := range errs {
		if strings.Contains(e, "Missing Contacts CSV file") {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
