package storage

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/caustics/internal/tensor"
)

func testRun() *Run {
	return &Run{
		Scenario: "test",
		Lens:     "sis",
		ZS:       1.5,
		FOV:      4,
		DType:    "float64",
		Layout:   []string{"lens.th_ein()"},
		Flat:     []float64{1.2},
		Image:    tensor.MustNew([]float64{0, 0.25, 1.0 / 3, 1e-9, 2, 3}, tensor.Shape{2, 3}),
		Metrics:  map[string]float64{"mse": 1.5},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runID, err := st.Save(testRun())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(runID, "test_"), "run id should start with scenario, got %s", runID)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "test", meta.Scenario)
	assert.Equal(t, 2, meta.NPix)
	assert.Equal(t, 1.5, meta.Metrics["mse"])
	assert.Equal(t, []float64{1.2}, meta.Flat)

	img, err := st.LoadImage(runID)
	require.NoError(t, err)
	assert.True(t, img.Equal(testRun().Image), "image did not round trip exactly: %v", img)
}

func TestStoreSaveRejectsBadImages(t *testing.T) {
	st := New(t.TempDir())

	run := testRun()
	run.Image = tensor.FromSlice(1, 2, 3)
	_, err := st.Save(run)
	assert.Error(t, err, "1-D image")

	run.Image = nil
	_, err = st.Save(run)
	assert.Error(t, err, "missing image")
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	first, err := st.Save(testRun())
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = st.Save(testRun())
	require.NoError(t, err)

	runs, err := st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first, runs[0].ID, "oldest run first")

	require.NoError(t, st.Delete(first))
	runs, _ = st.List()
	assert.Len(t, runs, 1)
	assert.Error(t, st.Delete("missing"))
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(testRun())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, st.ExportJSON(&buf, runID))

	var data ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, runID, data.Metadata.ID)
	require.Len(t, data.Image, 2)
	require.Len(t, data.Image[1], 3)
	assert.Equal(t, 3.0, data.Image[1][2])

	path := filepath.Join(t.TempDir(), "run.json")
	assert.NoError(t, st.ExportJSONFile(path, runID))
}
