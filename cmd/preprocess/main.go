// Command preprocess runs the reconciliation pipeline over a local data
// directory without the HTTP server. It scans for per-rep file pairs named
// <rep>_send.csv and <rep>_open.csv, reconciles each against a shared
// contacts file, and writes timestamped exports.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ignite/outreach-analytics/internal/calls"
	"github.com/ignite/outreach-analytics/internal/export"
	"github.com/ignite/outreach-analytics/internal/ingest"
	"github.com/ignite/outreach-analytics/internal/metrics"
	"github.com/ignite/outreach-analytics/internal/pipeline"
	"github.com/ignite/outreach-analytics/internal/pkg/logger"
)

func main() {
	dataDir := flag.String("data", "data", "directory containing <rep>_send.csv / <rep>_open.csv pairs")
	contactsPath := flag.String("contacts", "data/contacts.csv", "contacts CSV shared by all reps")
	callsPath := flag.String("calls", "", "optional calls record CSV shared by all reps")
	outDir := flag.String("out", "data/processed_files", "export output directory")
	level := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	logger.SetLevel(logger.ParseLevel(*level))

	var callRecords []calls.CallRecord
	if *callsPath != "" {
		var err error
		callRecords, err = loadCalls(*callsPath)
		if err != nil {
			log.Fatalf("Failed to load calls file: %v", err)
		}
	}

	reps, err := findRepPairs(*dataDir)
	if err != nil {
		log.Fatalf("Failed to scan data dir: %v", err)
	}
	if len(reps) == 0 {
		log.Fatalf("No <rep>_send.csv / <rep>_open.csv pairs found in %s", *dataDir)
	}

	ctx := context.Background()
	failures := 0

	for _, rep := range reps {
		if err := processRep(ctx, *dataDir, rep, *contactsPath, *outDir, callRecords); err != nil {
			logger.Error("rep failed", "rep", rep, "error", err.Error())
			failures++
		}
	}

	if failures > 0 {
		log.Fatalf("%d of %d reps failed", failures, len(reps))
	}
	fmt.Printf("Processed %d reps into %s\n", len(reps), *outDir)
}

// findRepPairs returns the rep names that have both a send and an open file.
// A send file without its open counterpart is reported and skipped.
func findRepPairs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var reps []string
	for _, e := range entries {
		name := e.Name()
		rep, ok := strings.CutSuffix(name, "_send.csv")
		if !ok || e.IsDir() {
			continue
		}
		openPath := filepath.Join(dir, rep+"_open.csv")
		if _, err := os.Stat(openPath); err != nil {
			logger.Warn("send file has no open counterpart, skipping", "rep", rep)
			continue
		}
		reps = append(reps, rep)
	}
	return reps, nil
}

func loadCalls(path string) ([]calls.CallRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, msgs, err := calls.Parse(f)
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return records, nil
}

func processRep(ctx context.Context, dataDir, rep, contactsPath, outDir string, callRecords []calls.CallRecord) error {
	sources, closeAll, err := openSources(dataDir, rep, contactsPath)
	if err != nil {
		return err
	}
	defer closeAll()

	result, err := pipeline.Process(ctx, sources)
	if err != nil {
		return err
	}

	artifacts, err := export.SaveLocal(filepath.Join(outDir, rep), rep, result)
	if err != nil {
		return err
	}

	summary := metrics.Summarize(result.Successful, result.Failed, result.SendOpenSuccessful)
	fmt.Printf("%s: %d sends, %d matched (%.1f%% open rate), %d failed -> %s\n",
		rep, summary.TotalSends, summary.Matched, summary.OpenRate*100, summary.Failed,
		filepath.Dir(artifacts.SuccessfulPath))

	if len(callRecords) > 0 {
		_, stats := calls.JoinEmails(result.Successful, callRecords)
		combined := calls.CombinedMetrics(result.Successful, callRecords)
		fmt.Printf("  calls: %d records, %d email records with call activity, %d cross-channel contacts\n",
			stats.TotalCallRecords, stats.JoinedRecords, combined.CrossChannelContacts)
	}

	for _, w := range result.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	return nil
}

func openSources(dataDir, rep, contactsPath string) (map[ingest.Role]io.Reader, func(), error) {
	paths := map[ingest.Role]string{
		ingest.RoleSendMails: filepath.Join(dataDir, rep+"_send.csv"),
		ingest.RoleOpenMails: filepath.Join(dataDir, rep+"_open.csv"),
		ingest.RoleContacts:  contactsPath,
	}

	sources := make(map[ingest.Role]io.Reader, len(paths))
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	for role, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open %s: %w", p, err)
		}
		files = append(files, f)
		sources[role] = f
	}
	return sources, closeAll, nil
}
