package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/stellarlinkco/finbench/internal/problem"
)

const manifestName = "manifest.json"

// Manifest records how a dataset directory was produced.
type Manifest struct {
	Seed      int64                  `json:"seed"`
	Ratios    Ratios                 `json:"ratios"`
	CreatedAt time.Time              `json:"created_at"`
	Splits    map[Split]SplitSummary `json:"splits"`
}

// SplitSummary holds per-split composition counts.
type SplitSummary struct {
	Total        int                        `json:"total"`
	ByCategory   map[problem.Category]int   `json:"by_category"`
	ByDifficulty map[problem.Difficulty]int `json:"by_difficulty"`
}

func summarize(problems []problem.Problem) SplitSummary {
	s := SplitSummary{
		Total:        len(problems),
		ByCategory:   make(map[problem.Category]int),
		ByDifficulty: make(map[problem.Difficulty]int),
	}
	for i := range problems {
		s.ByCategory[problems[i].Category]++
		s.ByDifficulty[problems[i].Difficulty]++
	}
	return s
}

// Write persists each split as <split>.jsonl plus a manifest.json in
// dir, creating the directory if needed.
func Write(dir string, splits map[Split][]problem.Problem, seed int64, ratios Ratios) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return errors.New("dataset: empty output dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("dataset: create dir: %w", err)
	}

	manifest := Manifest{
		Seed:      seed,
		Ratios:    ratios,
		CreatedAt: time.Now().UTC(),
		Splits:    make(map[Split]SplitSummary, len(splits)),
	}
	for _, split := range Splits() {
		problems := sortByID(splits[split])
		if err := writeJSONL(splitPath(dir, split), problems); err != nil {
			return err
		}
		manifest.Splits[split] = summarize(problems)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("dataset: marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("dataset: write manifest: %w", err)
	}
	return nil
}

func splitPath(dir string, split Split) string {
	return filepath.Join(dir, string(split)+".jsonl")
}

// sortByID returns a copy ordered by problem ID so dataset files are
// stable regardless of generation order.
func sortByID(problems []problem.Problem) []problem.Problem {
	out := append([]problem.Problem(nil), problems...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func writeJSONL(path string, problems []problem.Problem) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range problems {
		if err := enc.Encode(&problems[i]); err != nil {
			_ = f.Close()
			return fmt.Errorf("dataset: encode problem: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("dataset: flush %s: %w", path, err)
	}
	return f.Close()
}

// Load reads one split from a dataset directory. A missing or
// unreadable split yields a DatasetError.
func Load(ctx context.Context, dir string, split Split) ([]problem.Problem, error) {
	if ctx == nil {
		return nil, errors.New("dataset: nil context")
	}
	if !split.Valid() {
		return nil, &DatasetError{Split: string(split), Err: errors.New("unknown split")}
	}
	path := splitPath(strings.TrimSpace(dir), split)

	f, err := os.Open(path)
	if err != nil {
		return nil, &DatasetError{Split: string(split), Path: path, Err: err}
	}
	defer f.Close()

	problems, err := decodeJSONLStream[problem.Problem](ctx, f)
	if err != nil {
		return nil, &DatasetError{Split: string(split), Path: path, Err: err}
	}
	return problems, nil
}

// LoadManifest reads the manifest from a dataset directory.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(strings.TrimSpace(dir), manifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("dataset: parse manifest: %w", err)
	}
	return &m, nil
}

// WriteProblems persists a problem pool as a standalone JSONL file.
func WriteProblems(path string, problems []problem.Problem) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("dataset: empty pool path")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("dataset: create pool dir: %w", err)
		}
	}
	return writeJSONL(path, problems)
}

// ReadProblems loads a problem pool written by WriteProblems.
func ReadProblems(ctx context.Context, path string) ([]problem.Problem, error) {
	if ctx == nil {
		return nil, errors.New("dataset: nil context")
	}
	path = strings.TrimSpace(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open pool: %w", err)
	}
	defer f.Close()

	problems, err := decodeJSONLStream[problem.Problem](ctx, f)
	if err != nil {
		return nil, fmt.Errorf("dataset: read pool %s: %w", path, err)
	}
	return problems, nil
}

func decodeJSONLStream[T any](ctx context.Context, r io.Reader) ([]T, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	var out []T
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			return out, fmt.Errorf("parse jsonl: %w", err)
		}
		out = append(out, item)
	}
	if err := sc.Err(); err != nil {
		return out, err
	}
	return out, nil
}

// TakeFirstN bounds a problem slice without copying when the bound is
// not binding.
func TakeFirstN(in []problem.Problem, n int) []problem.Problem {
	if n <= 0 || n >= len(in) {
		return in
	}
	out := make([]problem.Problem, 0, n)
	return append(out, in[:n]...)
}
