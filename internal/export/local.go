package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ignite/outreach-analytics/internal/pipeline"
	"github.com/ignite/outreach-analytics/internal/pkg/logger"
)

// Artifacts names the files one local export produced.
type Artifacts struct {
	SuccessfulPath string `json:"successful_path"`
	FailedPath     string `json:"failed_path"`
	MetadataPath   string `json:"metadata_path"`
}

type runMetadata struct {
	BatchID            string    `json:"batch_id"`
	ExportedAt         time.Time `json:"exported_at"`
	OriginalSendCount  int       `json:"original_send_count"`
	SuccessfulCount    int       `json:"successful_count"`
	FailedCount        int       `json:"failed_count"`
	SendOpenSuccessful int       `json:"send_open_successful"`
	Warnings           []string  `json:"warnings,omitempty"`
}

// SaveLocal writes timestamped successful/failed CSVs plus a metadata JSON
// sidecar under dir. The export is written whole or not at all: any failure
// removes files already written for this run.
func SaveLocal(dir, batchID string, result *pipeline.Result) (*Artifacts, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102_150405")
	a := &Artifacts{
		SuccessfulPath: filepath.Join(dir, fmt.Sprintf("successful_%s.csv", stamp)),
		FailedPath:     filepath.Join(dir, fmt.Sprintf("failed_%s.csv", stamp)),
		MetadataPath:   filepath.Join(dir, fmt.Sprintf("metadata_%s.json", stamp)),
	}

	cleanup := func() {
		os.Remove(a.SuccessfulPath)
		os.Remove(a.FailedPath)
		os.Remove(a.MetadataPath)
	}

	if err := writeFile(a.SuccessfulPath, func(f *os.File) error {
		return WriteSuccessfulCSV(f, result.Successful)
	}); err != nil {
		cleanup()
		return nil, err
	}
	if err := writeFile(a.FailedPath, func(f *os.File) error {
		return WriteFailedCSV(f, result.Failed)
	}); err != nil {
		cleanup()
		return nil, err
	}

	meta := runMetadata{
		BatchID:            batchID,
		ExportedAt:         time.Now().UTC(),
		OriginalSendCount:  result.OriginalSendCount,
		SuccessfulCount:    len(result.Successful),
		FailedCount:        len(result.Failed),
		SendOpenSuccessful: result.SendOpenSuccessful,
		Warnings:           result.Warnings,
	}
	if err := writeFile(a.MetadataPath, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		cleanup()
		return nil, err
	}

	logger.Info("batch exported locally",
		"batch_id", batchID,
		"successful", meta.SuccessfulCount,
		"failed", meta.FailedCount,
		"dir", dir)

	return a, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
