package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/safechecks/safechecks/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Counters(t *testing.T) {
	r := metrics.NewRegistry()
	r.RecordPush(true)
	r.RecordPush(false)
	r.RecordPush(false)
	r.SetQueueDepth(2)
	r.RecordPull("ok", 50*time.Millisecond, 4)
	r.RecordPull("skipped", 0, 0)
	r.RecordDroppedRows("Temperature Log", 1)
	r.RecordDroppedRows("Opening Checks", 0)

	count, err := testutil.GatherAndCount(r.Gatherer(), "safechecks_record_pushes_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per result label")

	count, err = testutil.GatherAndCount(r.Gatherer(), "safechecks_rows_dropped_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegistry_Handler(t *testing.T) {
	r := metrics.NewRegistry()
	r.SetQueueDepth(3)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "safechecks_pending_queue_depth 3")
}

func TestDefault(t *testing.T) {
	r := metrics.Default()
	require.NotNil(t, r)
	assert.True(t, metrics.Enabled())
	assert.Same(t, r, metrics.Default())
}
