package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"john.doe@example.com", "jo***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"not-an-email", "***@***"},
	}
	for _, tt := range tests {
		if got := RedactEmail(tt.in); got != tt.want {
			t.Errorf("RedactEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLogRedactsRecipientFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Info("matched send to open", "recipient_email", "jane.roe@example.com", "offset", 5)

	var entry map[string]string
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["recipient_email"] != "ja***@example.com" {
		t.Errorf("recipient_email = %q, want redacted", entry["recipient_email"])
	}
	if entry["offset"] != "5" {
		t.Errorf("offset = %q", entry["offset"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %q", entry["level"])
	}
}
