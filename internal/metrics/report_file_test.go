package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	rep := &Report{
		Model:     "claude-sonnet-4-5",
		Split:     "test",
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Total:     10,
		Correct:   8,
		Incorrect: 2,
		Accuracy:  0.8,
	}

	path, err := WriteReport(dir, rep)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if want := filepath.Join(dir, "claude-sonnet-4-5-20260314T092653Z.json"); path != want {
		t.Fatalf("path: got %s want %s", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var got Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Model != rep.Model || got.Accuracy != rep.Accuracy || got.Total != rep.Total {
		t.Fatalf("round trip: got %+v", got)
	}
}

func TestWriteReportValidation(t *testing.T) {
	if _, err := WriteReport("", &Report{Model: "m"}); err == nil {
		t.Fatalf("WriteReport: expected error for empty dir")
	}
	if _, err := WriteReport(t.TempDir(), nil); err == nil {
		t.Fatalf("WriteReport: expected error for nil report")
	}
}

func TestSanitizeModelName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"claude-sonnet-4-5", "claude-sonnet-4-5"},
		{"openai/gpt-4.1", "openai-gpt-4.1"},
		{"a b  c", "a-b-c"},
		{"///", "model"},
		{"", "model"},
	}
	for _, tc := range cases {
		if got := sanitizeModelName(tc.in); got != tc.want {
			t.Fatalf("sanitizeModelName(%q): got %q want %q", tc.in, got, tc.want)
		}
	}
}
