package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/support-agent/support-query/internal/storage/models"
)

// Collectors mirrors metrics records into Prometheus series.
type Collectors struct {
	queryTotal   *prometheus.CounterVec
	tokensUsed   *prometheus.CounterVec
	cost         *prometheus.CounterVec
	queryLatency prometheus.Histogram
}

func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		queryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "support_query",
			Name:      "query_total",
			Help:      "Total number of questions processed",
		}, []string{"status"}),
		tokensUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "support_query",
			Name:      "llm_tokens_used_total",
			Help:      "Total LLM tokens used",
		}, []string{"model", "type"}),
		cost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "support_query",
			Name:      "llm_cost_usd_total",
			Help:      "Estimated LLM API cost in USD",
		}, []string{"model"}),
		queryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "support_query",
			Name:      "query_latency_seconds",
			Help:      "Completion call latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(c.queryTotal, c.tokensUsed, c.cost, c.queryLatency)
	return c
}

// Append observes one record. Blocked records only count towards query_total.
func (c *Collectors) Append(ctx context.Context, rec *models.MetricsRecord) error {
	if c == nil {
		return nil
	}

	if rec.Blocked {
		c.queryTotal.WithLabelValues("blocked").Inc()
		return nil
	}
	c.queryTotal.WithLabelValues("ok").Inc()

	c.tokensUsed.WithLabelValues(rec.Model, "prompt").Add(float64(rec.TokensPrompt))
	c.tokensUsed.WithLabelValues(rec.Model, "completion").Add(float64(rec.TokensCompletion))
	c.cost.WithLabelValues(rec.Model).Add(rec.EstimatedCostUSD)
	c.queryLatency.Observe(float64(rec.LatencyMS) / 1000)
	return nil
}

// WriteTextfile exports everything gathered in the node_exporter textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
