package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const reportTimeLayout = "20060102T150405Z"

// WriteReport persists a report as an indented JSON file under dir,
// named from the model and the report timestamp, and returns the path
// of the file it wrote. The directory is created if needed.
func WriteReport(dir string, rep *Report) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", errors.New("metrics: empty report dir")
	}
	if rep == nil {
		return "", errors.New("metrics: nil report")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("metrics: create report dir: %w", err)
	}

	ts := rep.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	name := fmt.Sprintf("%s-%s.json", sanitizeModelName(rep.Model), ts.UTC().Format(reportTimeLayout))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("metrics: marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("metrics: write report: %w", err)
	}
	return path, nil
}

// sanitizeModelName keeps model identifiers filesystem-safe. Slashes
// and other separators collapse to single dashes.
func sanitizeModelName(model string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return "model"
	}
	var sb strings.Builder
	lastDash := false
	for _, r := range model {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(sb.String(), "-")
	if out == "" {
		return "model"
	}
	return out
}
