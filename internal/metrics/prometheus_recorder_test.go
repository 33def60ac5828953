package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("render_posts", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("render_posts", ResultSuccess)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.IncPostResult(PostRendered)
	pr.IncPostResult(PostRendered)
	pr.IncPostResult(PostUnpublished)
	pr.AddPagesWritten("post", 2)
	pr.AddPagesWritten("index", 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)

	assert.InDelta(t, 2, counterValue(t, reg, "blogbuilder_posts_total", "rendered"), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "blogbuilder_posts_total", "unpublished"), 0)
	assert.InDelta(t, 2, counterValue(t, reg, "blogbuilder_pages_written_total", "post"), 0)
	assert.InDelta(t, 0, counterValue(t, reg, "blogbuilder_pages_written_total", "index"), 0)
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncBuildOutcome(BuildOutcomeFailed)

	path := filepath.Join(t.TempDir(), "nested", "blogbuilder.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `blogbuilder_build_outcomes_total{outcome="failed"} 1`)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveBuildDuration(time.Second)
		pr.IncBuildOutcome(BuildOutcomeSuccess)
		pr.AddPagesWritten("post", 1)
	})
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncPostResult(PostFailed)
	r.AddPagesWritten("post", 3)
}

// counterValue returns the counter in family name whose single label equals label.
func counterValue(t *testing.T, reg *prom.Registry, name, label string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if len(m.GetLabel()) == 1 && m.GetLabel()[0].GetValue() == label {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
