package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/support-agent/support-query/internal/storage/models"
	"github.com/support-agent/support-query/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	_, err = db.Exec("PRAGMA busy_timeout = 5000")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	logger.Debug("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS query_metrics (
		request_id TEXT PRIMARY KEY,
		question_hash TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		tokens_prompt INTEGER NOT NULL DEFAULT 0,
		tokens_completion INTEGER NOT NULL DEFAULT 0,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		estimated_cost_usd REAL NOT NULL DEFAULT 0,
		blocked INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_metrics_question ON query_metrics(question_hash);
	CREATE INDEX IF NOT EXISTS idx_metrics_timestamp ON query_metrics(timestamp);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug("SQLite schema initialized")
	return nil
}

// Append inserts one record. A record already stored under the same request id is kept.
func (c *Client) Append(ctx context.Context, rec *models.MetricsRecord) error {
	query := `
		INSERT OR IGNORE INTO query_metrics (
			request_id, question_hash, timestamp, model,
			tokens_prompt, tokens_completion, total_tokens,
			latency_ms, estimated_cost_usd, blocked
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.ExecContext(
		ctx,
		query,
		rec.RequestID,
		rec.QuestionHash,
		rec.Timestamp,
		rec.Model,
		rec.TokensPrompt,
		rec.TokensCompletion,
		rec.TotalTokens,
		rec.LatencyMS,
		rec.EstimatedCostUSD,
		boolToInt(rec.Blocked),
	)
	if err != nil {
		return fmt.Errorf("failed to insert metrics record: %w", err)
	}

	return nil
}

// ListMetrics returns up to limit records, newest first.
func (c *Client) ListMetrics(ctx context.Context, limit int) ([]models.MetricsRecord, error) {
	query := `
		SELECT request_id, question_hash, timestamp, model,
		       tokens_prompt, tokens_completion, total_tokens,
		       latency_ms, estimated_cost_usd, blocked
		FROM query_metrics
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var records []models.MetricsRecord
	for rows.Next() {
		var rec models.MetricsRecord
		var blocked int
		err := rows.Scan(
			&rec.RequestID,
			&rec.QuestionHash,
			&rec.Timestamp,
			&rec.Model,
			&rec.TokensPrompt,
			&rec.TokensCompletion,
			&rec.TotalTokens,
			&rec.LatencyMS,
			&rec.EstimatedCostUSD,
			&blocked,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metrics row: %w", err)
		}
		rec.Blocked = blocked == 1
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (c *Client) Summary(ctx context.Context) (*models.MetricsSummary, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(blocked), 0),
		       COALESCE(SUM(total_tokens), 0),
		       COALESCE(SUM(estimated_cost_usd), 0)
		FROM query_metrics
	`

	var s models.MetricsSummary
	err := c.db.QueryRowContext(ctx, query).Scan(&s.Requests, &s.Blocked, &s.TotalTokens, &s.EstimatedCostUSD)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize metrics: %w", err)
	}

	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
