package ingest

import (
	"strings"
	"time"
)

// SentDateFormats is the ordered list of accepted sent_date layouts.
// The exports write day/month/year; the ISO fallback covers re-ingested
// output files. Order matters: formats are attempted front to back.
var SentDateFormats = []string{
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
}

// ParseSentDate attempts each accepted layout in order. The zero time with
// ok=false is the explicit null fallback; callers never see a parse error.
func ParseSentDate(raw string) (time.Time, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range SentDateFormats {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// FormatSentDate renders a timestamp in the primary export layout.
func FormatSentDate(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(SentDateFormats[0])
}
