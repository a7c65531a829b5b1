package models

import "time"

// TimestampLayout renders UTC times as ISO-8601 with microseconds and a Z suffix.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// MetricsRecord is written once per invocation and never changed afterwards.
type MetricsRecord struct {
	RequestID        string  `json:"request_id"`
	QuestionHash     string  `json:"question_hash"`
	Timestamp        string  `json:"timestamp"`
	Model            string  `json:"model,omitempty"`
	TokensPrompt     int     `json:"tokens_prompt"`
	TokensCompletion int     `json:"tokens_completion"`
	TotalTokens      int     `json:"total_tokens"`
	LatencyMS        int64   `json:"latency_ms"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	Blocked          bool    `json:"blocked,omitempty"`
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// MetricsSummary aggregates stored records.
type MetricsSummary struct {
	Requests         int64   `json:"requests"`
	Blocked          int64   `json:"blocked"`
	TotalTokens      int64   `json:"total_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

// Summarize aggregates records the same way the sqlite summary query does.
func Summarize(records []MetricsRecord) MetricsSummary {
	var s MetricsSummary
	for _, rec := range records {
		s.Requests++
		if rec.Blocked {
			s.Blocked++
		}
		s.TotalTokens += int64(rec.TotalTokens)
		s.EstimatedCostUSD += rec.EstimatedCostUSD
	}
	return s
}
