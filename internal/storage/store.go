// Package storage keeps finished runs on disk, one directory per run with
// a metadata.json and a series.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/metrics"
	"github.com/san-kum/loopsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

var seriesHeader = []string{"time", "reference", "output", "error", "control"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Timestamp time.Time      `json:"timestamp"`
	Samples   int            `json:"samples"`
	Config    *config.Config `json:"config"`
	Metrics   metrics.Report `json:"metrics"`
}

var unsafeLabel = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Save writes a run and returns its ID, derived from label and the current
// time.
func (s *Store) Save(label string, cfg *config.Config, result *sim.Result, report metrics.Report) (string, error) {
	if label == "" {
		label = "run"
	}
	label = unsafeLabel.ReplaceAllString(label, "_")
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", label, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Label:     label,
		Timestamp: now,
		Samples:   result.Len(),
		Config:    cfg,
		Metrics:   report,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		os.RemoveAll(runDir)
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), result); err != nil {
		os.RemoveAll(runDir)
		return "", fmt.Errorf("write series: %w", err)
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeSeries(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(seriesHeader); err != nil {
		return err
	}
	for i := range result.Time {
		row := []string{
			formatFloat(result.Time[i]),
			formatFloat(result.Reference[i]),
			formatFloat(result.Output[i]),
			formatFloat(result.Error[i]),
			formatFloat(result.Control[i]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns all readable runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSeries reads the stored trajectories back into a Result.
func (s *Store) LoadSeries(runID string) (*sim.Result, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(seriesHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read series of %s: %w", runID, err)
	}

	res := &sim.Result{}
	for i, record := range records {
		if i == 0 {
			continue
		}
		var row [5]float64
		for j, field := range record {
			row[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("series of %s, line %d: %w", runID, i+1, err)
			}
		}
		res.Time = append(res.Time, row[0])
		res.Reference = append(res.Reference, row[1])
		res.Output = append(res.Output, row[2])
		res.Error = append(res.Error, row[3])
		res.Control = append(res.Control, row[4])
	}
	return res, nil
}

// Latest returns the most recent run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: store %s is empty", ErrRunNotFound, s.baseDir)
	}
	return &runs[len(runs)-1], nil
}
