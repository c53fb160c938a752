package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ignite/outreach-analytics/internal/pkg/logger"
)

// sampleRows bounds the content spot checks: enough to catch a wrong date
// format or a shifted column, cheap enough to run on every upload.
const sampleRows = 10

// Result carries everything the validator learned about one batch of
// sources. Errors abort the pipeline; Warnings are informational and travel
// with a successful run.
type Result struct {
	Frames   map[Role]*Table
	Errors   []string
	Warnings []string
}

// Valid reports whether the batch can proceed to normalization.
func (r *Result) Valid() bool { return len(r.Errors) == 0 }

// ValidateSources loads and validates every required role. Each file fails
// fast internally, but messages accumulate across all files so the caller
// sees every problem in one pass. A missing role produces a dedicated
// message and is skipped, never a crash.
func ValidateSources(sources map[Role]io.Reader) *Result {
	res := &Result{Frames: make(map[Role]*Table)}

	var missing []string
	for _, role := range RequiredRoles() {
		src, ok := sources[role]
		if !ok || src == nil {
			missing = append(missing, fmt.Sprintf("Missing %s CSV file", roleLabels[role]))
			continue
		}
		validateRole(role, src, res)
	}
	// Missing-file messages are listed at the end, after per-file errors.
	res.Errors = append(res.Errors, missing...)

	logger.Info("source validation complete",
		"roles", len(res.Frames),
		"errors", len(res.Errors),
		"warnings", len(res.Warnings))

	return res
}

func validateRole(role Role, src io.Reader, res *Result) {
	label := roleLabels[role]

	table, err := ReadCSV(src)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", label, err))
		return
	}
	if table.Len() == 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: file has no data rows", label))
		return
	}

	applyAliases(role, table)

	if missing := missingRequired(role, table); len(missing) > 0 {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"%s: missing required column(s) %s; columns present: %s",
			label,
			strings.Join(missing, ", "),
			strings.Join(table.Columns, ", ")))
		return
	}

	res.Warnings = append(res.Warnings, spotCheck(role, table)...)
	res.Frames[role] = table
}

// applyAliases renames observed headers to canonical names. A header that
// already matches a canonical name is accepted directly.
func applyAliases(role Role, table *Table) {
	for _, alias := range roleAliases[role] {
		// Never clobber a canonical column that is already present.
		if table.HasColumn(alias.Canonical) {
			continue
		}
		for _, col := range table.Columns {
			if strings.EqualFold(strings.TrimSpace(col), alias.Accepted) {
				table.RenameColumn(col, alias.Canonical)
				break
			}
		}
	}
}

func missingRequired(role Role, table *Table) []string {
	var missing []string
	for _, col := range requiredColumns[role] {
		if !table.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// spotCheck samples the first rows for content-shape problems: unparseable
// dates, emails without an @, non-numeric metrics. These are warnings only;
// affected rows are coerced to null later and may then drop out on a
// missing join key.
func spotCheck(role Role, table *Table) []string {
	label := roleLabels[role]
	n := table.Len()
	if n > sampleRows {
		n = sampleRows
	}

	var warns []string
	badDates, badEmails, badNumbers := 0, 0, 0

	for i := 0; i < n; i++ {
		switch role {
		case RoleSendMails:
			if _, ok := ParseSentDate(table.Value(i, ColSentDate)); !ok {
				badDates++
			}
			if !strings.Contains(table.Value(i, ColRecipientEmail), "@") {
				badEmails++
			}
		case RoleOpenMails:
			if _, ok := ParseSentDate(table.Value(i, ColSentDate)); !ok {
				badDates++
			}
			if !numeric(table.Value(i, ColViews)) || !numeric(table.Value(i, ColClicks)) {
				badNumbers++
			}
		case RoleContacts:
			if !strings.Contains(table.Value(i, ColEmail), "@") {
				badEmails++
			}
		}
	}

	if badDates > 0 {
		warns = append(warns, fmt.Sprintf("%s: %d of first %d rows have unparseable sent_date values", label, badDates, n))
	}
	if badEmails > 0 {
		warns = append(warns, fmt.Sprintf("%s: %d of first %d rows have values that do not look like emails", label, badEmails, n))
	}
	if badNumbers > 0 {
		warns = append(warns, fmt.Sprintf("%s: %d of first %d rows have non-numeric Views/Clicks values", label, badNumbers, n))
	}
	return warns
}

// numeric reports whether a metric cell coerces to an integer. Empty cells
// are fine: they become 0 during normalization.
func numeric(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	_, err := strconv.Atoi(v)
	return err == nil
}
