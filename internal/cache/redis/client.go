package redis

import (
	"context"
	"fmt"
	"math"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/support-agent/support-query/internal/storage/models"
	"github.com/support-agent/support-query/pkg/logger"
)

const (
	MetricRequests         = "requests"
	MetricBlocked          = "blocked"
	MetricTokensPrompt     = "tokens_prompt"
	MetricTokensCompletion = "tokens_completion"
	MetricTotalTokens      = "total_tokens"
	MetricCostMicroUSD     = "cost_micro_usd"
)

// Metrics lists every counter Append maintains.
var Metrics = []string{
	MetricRequests,
	MetricBlocked,
	MetricTokensPrompt,
	MetricTokensCompletion,
	MetricTotalTokens,
	MetricCostMicroUSD,
}

// Client keeps running usage counters shared by every invocation that points at the same Redis.
type Client struct {
	client *redis.Client
}

func NewClient(ctx context.Context, addr, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	_, err := client.Ping(ctx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Debug("Redis client initialized", zap.String("addr", addr))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Append adds one invocation to the counters in a single transaction.
func (c *Client) Append(ctx context.Context, rec *models.MetricsRecord) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, metricKey(MetricRequests))
		if rec.Blocked {
			pipe.Incr(ctx, metricKey(MetricBlocked))
		}
		pipe.IncrBy(ctx, metricKey(MetricTokensPrompt), int64(rec.TokensPrompt))
		pipe.IncrBy(ctx, metricKey(MetricTokensCompletion), int64(rec.TokensCompletion))
		pipe.IncrBy(ctx, metricKey(MetricTotalTokens), int64(rec.TotalTokens))
		pipe.IncrBy(ctx, metricKey(MetricCostMicroUSD), int64(math.Round(rec.EstimatedCostUSD*1e6)))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment usage counters: %w", err)
	}

	logger.Debug("Usage counters updated", zap.String("request_id", rec.RequestID))
	return nil
}

func (c *Client) GetMetric(ctx context.Context, metricName string) (int64, error) {
	val, err := c.client.Get(ctx, metricKey(metricName)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

func metricKey(name string) string {
	return fmt.Sprintf("metric:%s", name)
}
