package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewCollector("test", reg, zap.NewNop()), reg
}

func TestNewCollector_IsolatedRegistries(t *testing.T) {
	// 独立 Registry 下同名指标可以重复注册
	c1, _ := newTestCollector(t)
	c2, _ := newTestCollector(t)
	assert.NotNil(t, c1.toolCallsTotal)
	assert.NotNil(t, c2.toolCallsTotal)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	c, _ := newTestCollector(t)
	c.RecordHTTPRequest("POST", "/v1/tools/{name}", 200, 10*time.Millisecond)
	c.RecordHTTPRequest("POST", "/v1/tools/{name}", 404, 5*time.Millisecond)
	c.RecordHTTPRequest("POST", "/v1/tools/{name}", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("POST", "/v1/tools/{name}", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("POST", "/v1/tools/{name}", "4xx")))
}

func TestCollector_RecordToolCall(t *testing.T) {
	c, _ := newTestCollector(t)
	c.RecordToolCall("reason", "", time.Millisecond)
	c.RecordToolCall("reason", "INVALID_ARGUMENT", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.toolCallsTotal.WithLabelValues("reason", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.toolCallsTotal.WithLabelValues("reason", "INVALID_ARGUMENT")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.toolCallDuration))
}

func TestCollector_DomainMetrics(t *testing.T) {
	c, reg := newTestCollector(t)

	c.RecordThinkingRun("completed", 7)
	c.RecordReActCycle(true)
	c.RecordReActCycle(false)
	c.RecordAssessment("reasoning_chain", 0.62, []string{"missing_evidence", "bias"})
	c.RecordFeedback("")
	c.RecordAdaptations(3)
	c.SetLearningPatterns(4)
	c.SetMemoryLoad(12, 5)
	c.RecordSemanticSearch(true)
	c.RecordSemanticSearch(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.thinkingSessions.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reactCycles.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.flawsTotal.WithLabelValues("bias")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.feedbackTotal.WithLabelValues("unspecified")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.adaptationsApplied))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.patternsTotal))
	assert.Equal(t, 12.0, testutil.ToFloat64(c.memoryItems))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.graphEntities))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.semanticLookup.WithLabelValues("hit")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCollector_RecordSnapshotSave(t *testing.T) {
	c, _ := newTestCollector(t)
	c.RecordSnapshotSave("auto", nil, time.Millisecond)
	c.RecordSnapshotSave("manual", errors.New("disk full"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.snapshotSaves.WithLabelValues("auto", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.snapshotSaves.WithLabelValues("manual", "failure")))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{429, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
		{100, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, statusCode(tt.code))
	}
}
