package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/support-agent/support-query/internal/storage/models"
)

func sampleRecord() *models.MetricsRecord {
	return &models.MetricsRecord{
		RequestID:        "0123456789abcdef0123456789abcdef",
		QuestionHash:     "0123456789abcdef",
		Model:            "gpt-4o-mini",
		TokensPrompt:     1000,
		TokensCompletion: 200,
		TotalTokens:      1200,
		LatencyMS:        1500,
		EstimatedCostUSD: 0.00027,
	}
}

func TestCollectors_Append(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectors(reg)
	ctx := context.Background()

	require.NoError(t, c.Append(ctx, sampleRecord()))
	require.NoError(t, c.Append(ctx, &models.MetricsRecord{Blocked: true}))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.queryTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.queryTotal.WithLabelValues("blocked")))
	assert.Equal(t, 1000.0, testutil.ToFloat64(c.tokensUsed.WithLabelValues("gpt-4o-mini", "prompt")))
	assert.Equal(t, 200.0, testutil.ToFloat64(c.tokensUsed.WithLabelValues("gpt-4o-mini", "completion")))
	assert.InDelta(t, 0.00027, testutil.ToFloat64(c.cost.WithLabelValues("gpt-4o-mini")), 1e-12)
	assert.Equal(t, 1, testutil.CollectAndCount(c.queryLatency))
}

func TestCollectors_NilSafe(t *testing.T) {
	var c *Collectors
	assert.NoError(t, c.Append(context.Background(), sampleRecord()))
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectors(reg)
	require.NoError(t, c.Append(context.Background(), sampleRecord()))

	path := filepath.Join(t.TempDir(), "support_query.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `support_query_query_total{status="ok"} 1`)
	assert.Contains(t, string(data), "support_query_query_latency_seconds_bucket")
}

type fakeSink struct {
	err     error
	records []*models.MetricsRecord
}

func (f *fakeSink) Append(ctx context.Context, rec *models.MetricsRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func TestRecorder_PrimaryFailureIsReturned(t *testing.T) {
	boom := errors.New("disk full")
	secondary := &fakeSink{}
	r := NewRecorder(&fakeSink{err: boom}, nil)
	r.AddSink("sqlite", secondary)

	err := r.Record(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, secondary.records, "secondary sinks run only after the primary succeeded")
}

func TestRecorder_SecondaryFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	primary := &fakeSink{}
	healthy := &fakeSink{}

	r := NewRecorder(primary, zap.New(core))
	r.AddSink("redis", &fakeSink{err: errors.New("connection refused")})
	r.AddSink("sqlite", healthy)

	rec := sampleRecord()
	require.NoError(t, r.Record(context.Background(), rec))

	assert.Equal(t, []*models.MetricsRecord{rec}, primary.records)
	assert.Equal(t, []*models.MetricsRecord{rec}, healthy.records)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Secondary metrics sink failed", entry.Message)
	assert.Equal(t, "redis", entry.ContextMap()["sink"])
}
