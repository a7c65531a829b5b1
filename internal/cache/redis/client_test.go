package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/support-agent/support-query/internal/storage/models"
)

func TestClient_AppendIncrementsCounters(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewClient(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Append(ctx, &models.MetricsRecord{
		RequestID:        "a",
		TokensPrompt:     1000,
		TokensCompletion: 200,
		TotalTokens:      1200,
		EstimatedCostUSD: 0.00027,
	}))
	require.NoError(t, c.Append(ctx, &models.MetricsRecord{RequestID: "b", Blocked: true}))

	want := map[string]int64{
		MetricRequests:         2,
		MetricBlocked:          1,
		MetricTokensPrompt:     1000,
		MetricTokensCompletion: 200,
		MetricTotalTokens:      1200,
		MetricCostMicroUSD:     270,
	}
	for name, v := range want {
		got, err := c.GetMetric(ctx, name)
		require.NoError(t, err, name)
		assert.Equal(t, v, got, name)
	}

	raw, err := mr.Get("metric:requests")
	require.NoError(t, err)
	assert.Equal(t, "2", raw)
}

func TestClient_GetMetricMissing(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewClient(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	defer c.Close()

	v, err := c.GetMetric(ctx, MetricBlocked)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
