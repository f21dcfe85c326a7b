package classify

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/drivesense/internal/motion"
	"github.com/tphakala/drivesense/internal/spectral"
	"github.com/tphakala/drivesense/internal/trace"
)

func flatTrace(n int) *trace.Trace {
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tr := &trace.Trace{}
	for i := range n {
		at := t0.Add(time.Duration(i) * 100 * time.Millisecond)
		tr.Records = append(tr.Records, trace.Record{
			Kind:   trace.KindSample,
			Time:   at,
			Sample: motion.Sample{Magnitude: 0.05, Timestamp: at},
		})
	}
	return tr
}

func smallWindow() spectral.Config {
	cfg := spectral.DefaultConfig()
	cfg.WindowSize = 8
	return cfg
}

func TestRunCSV(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, Run(&out, flatTrace(20), smallWindow(), "csv"))

	rows, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"window_end", "label", "energy", "dominant_hz", "entropy"}, rows[0])
	assert.Equal(t, "2026-03-01T08:00:00.7Z", rows[1][0])
	assert.Equal(t, "stationary", rows[1][1])
	assert.Equal(t, "0.0000", rows[1][2])
}

func TestRunTable(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, Run(&out, flatTrace(20), smallWindow(), "table"))
	assert.True(t, strings.HasPrefix(out.String(), "window_end"))
	assert.Contains(t, out.String(), "2 windows of 8 samples, 4 samples left over")
}

func TestRunRejectsBadInput(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	assert.Error(t, Run(&out, flatTrace(8), smallWindow(), "xml"))

	cfg := smallWindow()
	cfg.WindowSize = 6
	assert.Error(t, Run(&out, flatTrace(8), cfg, "csv"))
}
