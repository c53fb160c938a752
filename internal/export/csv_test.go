package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-analytics/internal/pipeline"
	"github.com/ignite/outreach-analytics/internal/reconcile"
)

func sampleResult() *pipeline.Result {
	at := time.Date(2025, 7, 2, 19, 34, 57, 0, time.UTC)
	return &pipeline.Result{
		Successful: []reconcile.ReconciledRecord{
			{
				Send:          reconcile.SendRecord{RecipientName: "a@x.com", SentAt: at, RecipientEmail: "a@x.com", Domain: "x.com"},
				Views:         1,
				Clicks:        2,
				MatchedOffset: 5,
				Phase:         1,
				Contact: reconcile.ContactRecord{
					Email: "a@x.com", CompanyURL: "https://x.com", Name: "Alice", Title: "VP Sales",
					Extra: map[string]string{"Phone": "555-0100"},
				},
				CompanyURLID: 1,
			},
		},
		Failed: []reconcile.FailedRecord{
			{
				Send:       reconcile.SendRecord{RecipientName: "b@y.com", SentAt: at, RecipientEmail: "b@y.com"},
				Reason:     reconcile.ReasonMultipleMatches(3),
				MatchCount: 2,
			},
			{
				Send:   reconcile.SendRecord{RecipientName: "c@z.com", SentAt: at, RecipientEmail: "c@z.com"},
				Reason: reconcile.ReasonNoOpenRecords,
			},
		},
		OriginalSendCount:  3,
		SendOpenSuccessful: 1,
	}
}

func TestWriteSuccessfulCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSuccessfulCSV(&buf, sampleResult().Successful))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	header := rows[0]
	assert.Equal(t, "recipient_name", header[0])
	assert.Contains(t, header, "Company URL ID")
	assert.Contains(t, header, "Phone", "extra contact columns carry through")

	row := rows[1]
	assert.Equal(t, "a@x.com", row[0])
	assert.Equal(t, "02/07/2025 19:34:57", row[1])
	assert.Equal(t, "1", row[len(row)-1], "company id is the last column")
}

func TestWriteFailedCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFailedCSV(&buf, sampleResult().Failed))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "multiple_matches_at_plus_3_seconds", rows[1][4])
	assert.Equal(t, "2", rows[1][5])
	assert.Equal(t, "no_open_records_for_email", rows[2][4])
	assert.Equal(t, "", rows[2][5], "match_count stays blank when unset")
}

func TestSaveLocal(t *testing.T) {
	dir := t.TempDir()

	artifacts, err := SaveLocal(dir, "b1", sampleResult())
	require.NoError(t, err)

	for _, p := range []string{artifacts.SuccessfulPath, artifacts.FailedPath, artifacts.MetadataPath} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
		assert.Equal(t, dir, filepath.Dir(p))
	}

	meta, err := os.ReadFile(artifacts.MetadataPath)
	require.NoError(t, err)
	assert.Contains(t, string(meta), `"batch_id": "b1"`)
	assert.Contains(t, string(meta), `"original_send_count": 3`)
}

func TestSaveLocalCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	_, err := SaveLocal(dir, "b1", sampleResult())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	joined := strings.Join(names, " ")
	assert.Contains(t, joined, "successful_")
	assert.Contains(t, joined, "failed_")
	assert.Contains(t, joined, "metadata_")
}
