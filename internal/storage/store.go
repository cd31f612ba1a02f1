package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/caustics/internal/tensor"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Run is what Save persists: a rendered image and how it was produced.
type Run struct {
	Scenario string
	Lens     string
	ZS       float64
	FOV      float64
	DType    string
	Layout   []string
	Flat     []float64
	Image    *tensor.Tensor
	Metrics  map[string]float64
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Lens      string             `json:"lens"`
	Timestamp time.Time          `json:"timestamp"`
	ZS        float64            `json:"z_s"`
	FOV       float64            `json:"fov"`
	NPix      int                `json:"npix"`
	DType     string             `json:"dtype"`
	Layout    []string           `json:"layout"`
	Flat      []float64          `json:"flat"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes <id>/metadata.json and <id>/image.csv and returns the run id.
func (s *Store) Save(run *Run) (string, error) {
	if run.Image == nil {
		return "", fmt.Errorf("run %s has no image", run.Scenario)
	}
	shape := run.Image.Shape()
	if len(shape) != 2 {
		return "", fmt.Errorf("image must be 2-D, got shape %v", shape)
	}

	runID := fmt.Sprintf("%s_%s", run.Scenario, uuid.NewString())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Scenario:  run.Scenario,
		Lens:      run.Lens,
		Timestamp: time.Now(),
		ZS:        run.ZS,
		FOV:       run.FOV,
		NPix:      shape[0],
		DType:     run.DType,
		Layout:    run.Layout,
		Flat:      run.Flat,
		Metrics:   run.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeImage(filepath.Join(runDir, "image.csv"), run.Image); err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{"id": runID, "dir": runDir}).Debug("run saved")
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

func writeImage(path string, img *tensor.Tensor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	shape := img.Shape()
	rows, cols := shape[0], shape[1]
	data := img.Data()

	w := csv.NewWriter(f)
	for i := 0; i < rows; i++ {
		row := make([]string, cols)
		for j := 0; j < cols; j++ {
			row[j] = strconv.FormatFloat(data[i*cols+j], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every stored run, oldest first.
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
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadImage reads image.csv back into an [rows, cols] tensor.
func (s *Store) LoadImage(runID string) (*tensor.Tensor, error) {
	csvPath := filepath.Join(s.baseDir, runID, "image.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("run %s: empty image", runID)
	}

	cols := len(records[0])
	data := make([]float64, 0, len(records)*cols)
	for i, record := range records {
		for j, field := range record {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: row %d col %d: %w", runID, i, j, err)
			}
			data = append(data, val)
		}
	}
	return tensor.New(data, tensor.Shape{len(records), cols})
}

// Delete removes a stored run.
func (s *Store) Delete(runID string) error {
	runDir := filepath.Join(s.baseDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); err != nil {
		return err
	}
	return os.RemoveAll(runDir)
}
