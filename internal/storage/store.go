// Package storage keeps integration runs on disk, one directory per run with
// a metadata.json and a points.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/polysphere/internal/config"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/san-kum/polysphere/internal/orbit"
)

var header = []string{"curve", "kind", "color", "dashes", "dir", "type", "c0", "c1", "c2"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Study     string             `json:"study"`
	Command   string             `json:"command"`
	Timestamp time.Time          `json:"timestamp"`
	Sphere    string             `json:"sphere"`
	Weights   [2]int             `json:"weights"`
	Kind      string             `json:"kind"`
	P         string             `json:"p"`
	Q         string             `json:"q"`
	Curves    int                `json:"curves"`
	Points    int                `json:"points"`
	Degraded  int                `json:"degraded"`
	Summary   map[string]float64 `json:"summary,omitempty"`
}

// Save writes a new run for the curves computed from study by command.
func (s *Store) Save(study *config.Study, command string, curves []*orbit.Curve, summary map[string]float64) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%s_%d", study.Name, command, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Study:     study.Name,
		Command:   command,
		Timestamp: now,
		Sphere:    study.Sphere,
		Weights:   study.Weights,
		Kind:      study.Field.Kind,
		P:         study.Field.P.Poly().String(),
		Q:         study.Field.Q.Poly().String(),
		Curves:    len(curves),
		Summary:   summary,
	}
	for _, c := range curves {
		meta.Points += c.Len()
		meta.Degraded += c.Degraded
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writePoints(filepath.Join(runDir, "points.csv"), curves); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePoints(path string, curves []*orbit.Curve) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i, c := range curves {
		for _, pt := range c.Points {
			row := []string{
				strconv.Itoa(i),
				c.Kind.String(),
				strconv.Itoa(int(pt.Color)),
				strconv.FormatBool(pt.Dashes),
				strconv.Itoa(pt.Dir),
				pt.Type.String(),
			}
			for _, v := range pt.P {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the metadata of every run, oldest first. Directories without
// readable metadata are skipped.
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadPoints reads the curves of a run back.
func (s *Store) LoadPoints(runID string) ([]*orbit.Curve, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "points.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("points.csv: missing header")
	}

	var curves []*orbit.Curve
	for n, rec := range records[1:] {
		idx, pt, kind, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("points.csv row %d: %w", n+2, err)
		}
		for len(curves) <= idx {
			curves = append(curves, &orbit.Curve{Kind: kind})
		}
		curves[idx].Points = append(curves[idx].Points, pt)
	}
	return curves, nil
}

func parseRow(rec []string) (int, orbit.Point, orbit.CurveKind, error) {
	var pt orbit.Point
	idx, err := strconv.Atoi(rec[0])
	if err != nil || idx < 0 {
		return 0, pt, 0, fmt.Errorf("bad curve index %q", rec[0])
	}
	kind, err := orbit.ParseCurveKind(rec[1])
	if err != nil {
		return 0, pt, 0, err
	}
	color, err := strconv.Atoi(rec[2])
	if err != nil {
		return 0, pt, 0, err
	}
	pt.Color = dynamo.Color(color)
	if pt.Dashes, err = strconv.ParseBool(rec[3]); err != nil {
		return 0, pt, 0, err
	}
	if pt.Dir, err = strconv.Atoi(rec[4]); err != nil {
		return 0, pt, 0, err
	}
	if pt.Type, err = dynamo.ParseSepType(rec[5]); err != nil {
		return 0, pt, 0, err
	}
	for i := range pt.P {
		if pt.P[i], err = strconv.ParseFloat(rec[6+i], 64); err != nil {
			return 0, pt, 0, err
		}
	}
	return idx, pt, kind, nil
}
