package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/bufferbench/internal/config"
	"github.com/banshee-data/bufferbench/internal/fsutil"
	"github.com/banshee-data/bufferbench/internal/monitoring"
	"github.com/banshee-data/bufferbench/internal/stats"
	"github.com/banshee-data/bufferbench/internal/timeutil"
	"github.com/banshee-data/bufferbench/internal/window"
)

func init() {
	monitoring.SetLogger(nil)
}

const sampleDoc = `{
    "per_buffer": [[200000, 200020], [200100, 200135], [200200, 200210]],
    "between_buffers": [200000, 200100, 200250]
}`

// buffer starts go backwards after the first record
const unorderedDoc = `{
    "per_buffer": [[200100, 200135], [200000, 200020]],
    "between_buffers": [200000, 200100]
}`

func newFS(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("data.json", []byte(sampleDoc), 0o644))
	require.NoError(t, fsys.WriteFile("unordered.json", []byte(unorderedDoc), 0o644))
	return fsys
}

func runCLI(t *testing.T, fsys fsutil.FileSystem, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	clock := timeutil.NewMockClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	err := run(args, fsys, clock, &stdout, &stderr)
	return stdout.String(), err
}

func TestSummary(t *testing.T) {
	fsys := newFS(t)

	out, err := runCLI(t, fsys, "-json", "report.json", "summary", "data.json")
	require.NoError(t, err)
	assert.Regexp(t, `per-buffer\s+3\s+3\.500`, out)
	assert.Regexp(t, `between-buffers\s+3\s+15\.000`, out)

	data, err := fsys.ReadFile("report.json")
	require.NoError(t, err)
	var rep struct {
		RunID       string         `json:"run_id"`
		GeneratedAt time.Time      `json:"generated_at"`
		Window      window.Window  `json:"window"`
		PerBuffer   *stats.Summary `json:"per_buffer"`
	}
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Len(t, rep.RunID, 36)
	assert.Equal(t, window.Window{StartAt: 20, Duration: 60}, rep.Window)
	require.NotNil(t, rep.PerBuffer)
	assert.Equal(t, 3, rep.PerBuffer.Count)
	assert.InDelta(t, 1.0, rep.PerBuffer.Min, 1e-9)
}

func TestScatterToExplicitPath(t *testing.T) {
	fsys := newFS(t)

	out, err := runCLI(t, fsys, "-out", "plot.svg", "per-buffer-scatter", "data.json")
	require.NoError(t, err)
	assert.Equal(t, "wrote plot.svg\n", out)

	data, err := fsys.ReadFile("plot.svg")
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestDefaultOutputPath(t *testing.T) {
	fsys := newFS(t)

	out, err := runCLI(t, fsys, "between-buffers-hist", "data.json")
	require.NoError(t, err)
	assert.Equal(t, "wrote data_between-buffers-hist.png\n", out)

	data, err := fsys.ReadFile("data_between-buffers-hist.png")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestOutputIntoNewDirectory(t *testing.T) {
	fsys := newFS(t)

	out, err := runCLI(t, fsys, "-out", "plots/run1/plot.svg", "per-buffer-scatter", "data.json")
	require.NoError(t, err)
	assert.Equal(t, "wrote plots/run1/plot.svg\n", out)
	assert.True(t, fsys.Exists("plots/run1"))
	assert.True(t, fsys.Exists("plots/run1/plot.svg"))
}

func TestFailedRenderLeavesNoOutput(t *testing.T) {
	fsys := newFS(t)

	// window lies after all data
	_, err := runCLI(t, fsys, "-start-at", "1000", "-out", "plot.png", "per-buffer-scatter", "data.json")
	assert.ErrorIs(t, err, stats.ErrNoData)
	assert.False(t, fsys.Exists("plot.png"))

	require.NoError(t, fsys.WriteFile("old.png", []byte("previous plot"), 0o644))
	_, err = runCLI(t, fsys, "-start-at", "1000", "-out", "old.png", "between-buffers-hist", "data.json")
	assert.ErrorIs(t, err, stats.ErrNoData)
	data, err := fsys.ReadFile("old.png")
	require.NoError(t, err)
	assert.Equal(t, "previous plot", string(data))
}

func TestHTMLFormat(t *testing.T) {
	fsys := newFS(t)

	_, err := runCLI(t, fsys, "-format", "html", "-out", "gaps.html", "between-buffers-scatter", "data.json")
	require.NoError(t, err)
	data, err := fsys.ReadFile("gaps.html")
	require.NoError(t, err)
	assert.Contains(t, string(data), "echarts")
}

func TestStrictOrdering(t *testing.T) {
	fsys := newFS(t)

	_, err := runCLI(t, fsys, "summary", "unordered.json")
	assert.ErrorIs(t, err, window.ErrUnordered)

	out, err := runCLI(t, fsys, "-strict=false", "summary", "unordered.json")
	require.NoError(t, err)
	// both buffers lie inside the window and are kept in log order
	assert.Regexp(t, `per-buffer\s+2`, out)
}

func TestConfigAndFlagPrecedence(t *testing.T) {
	fsys := newFS(t)
	require.NoError(t, fsys.WriteFile("late.json", []byte(`{"start_at_secs": 100}`), 0o644))

	// window lies after all data
	_, err := runCLI(t, fsys, "-config", "late.json", "-out", "p.png", "per-buffer-scatter", "data.json")
	assert.ErrorIs(t, err, stats.ErrNoData)

	_, err = runCLI(t, fsys, "-config", "late.json", "-start-at", "20", "-out", "p.png", "per-buffer-scatter", "data.json")
	require.NoError(t, err)
}

func TestInvalidInput(t *testing.T) {
	fsys := newFS(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown kind", []string{"pie-chart", "data.json"}},
		{"unknown format", []string{"-format", "pdf", "per-buffer-scatter", "data.json"}},
		{"unknown extension", []string{"-out", "plot.bmp", "per-buffer-scatter", "data.json"}},
		{"negative duration", []string{"-duration", "-1", "summary", "data.json"}},
		{"zero bins", []string{"-bins", "0", "per-buffer-hist", "data.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, fsys, tt.args...)
			assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
		})
	}

	_, err := runCLI(t, fsys, "summary")
	assert.Error(t, err)
	_, err = runCLI(t, fsys, "summary", "missing.json")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, newFS(t), "-version")
	require.NoError(t, err)
	assert.Contains(t, out, "latency-plot")
}
