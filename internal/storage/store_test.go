package storage

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/metrics"
	"github.com/san-kum/loopsim/internal/sim"
)

func simulate(t *testing.T, cfg *config.Config) (*sim.Result, metrics.Report) {
	t.Helper()
	res, err := sim.Simulate(context.Background(), cfg.ToSim())
	require.NoError(t, err)
	return res, metrics.Analyze(res, cfg.Analysis())
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	cfg := config.GetPreset("first-order")
	cfg.DisturbanceAmplitude = 0.01
	cfg.Seed = 42
	res, report := simulate(t, cfg)

	runID, err := st.Save("first-order", cfg, res, report)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "first-order", meta.Label)
	assert.Equal(t, res.Len(), meta.Samples)
	assert.Equal(t, cfg, meta.Config)
	assert.Equal(t, report.SteadyStateError, meta.Metrics.SteadyStateError)
	assert.Equal(t, report.SettlingTime, meta.Metrics.SettlingTime)

	series, err := st.LoadSeries(runID)
	require.NoError(t, err)
	assert.Equal(t, res, series)
}

func TestStoreSaveFailureLeavesNoRun(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	require.NoError(t, st.Init())

	cfg := config.GetPreset("first-order")
	res, report := simulate(t, cfg)
	cfg.Kp = math.NaN()

	_, err := st.Save("broken", cfg, res, report)
	require.ErrorContains(t, err, "write metadata")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	cfg := config.DefaultConfig()
	res, report := simulate(t, cfg)
	first, err := st.Save("a", cfg, res, report)
	require.NoError(t, err)
	second, err := st.Save("b", cfg, res, report)
	require.NoError(t, err)

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first, runs[0].ID)
	assert.Equal(t, second, runs[1].ID)

	latest, err := st.Latest()
	require.NoError(t, err)
	assert.Equal(t, second, latest.ID)
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = st.Latest()
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStoreFileStructure(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	require.NoError(t, st.Init())

	cfg := config.DefaultConfig()
	res, report := simulate(t, cfg)

	runID, err := st.Save("with spaces/and slashes", cfg, res, report)
	require.NoError(t, err)
	assert.NotContains(t, runID, "/")

	assert.FileExists(t, filepath.Join(dir, runID, "metadata.json"))
	assert.FileExists(t, filepath.Join(dir, runID, "series.csv"))
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())

	_, err := st.Load("ghost")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = st.LoadSeries("ghost")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStoreCorruptSeries(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bad"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad", "series.csv"),
		[]byte("time,reference,output,error,control\n0,1,x,1,0\n"), 0644))

	_, err := st.LoadSeries("bad")
	assert.Error(t, err)
}
