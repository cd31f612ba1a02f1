package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/caustics/internal/tensor"
)

// ExportData is the self-contained JSON form of a run.
type ExportData struct {
	Metadata RunMetadata `json:"metadata"`
	Shape    []int       `json:"shape"`
	Image    [][]float64 `json:"image"`
}

func newExportData(meta *RunMetadata, img *tensor.Tensor) ExportData {
	shape := img.Shape()
	data := img.Data()
	rows := make([][]float64, shape[0])
	cols := shape[1]
	for i := range rows {
		rows[i] = data[i*cols : (i+1)*cols]
	}
	return ExportData{Metadata: *meta, Shape: []int(shape), Image: rows}
}

// ExportJSON writes the run to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	img, err := s.LoadImage(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(meta, img))
}

func (s *Store) ExportJSONFile(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.ExportJSON(file, runID)
}
