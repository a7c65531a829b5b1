package query

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/support-agent/support-query/internal/llm"
	"github.com/support-agent/support-query/internal/response"
	"github.com/support-agent/support-query/internal/safety"
	"github.com/support-agent/support-query/internal/storage/models"
	"github.com/support-agent/support-query/pkg/config"
	"github.com/support-agent/support-query/pkg/logger"
	"github.com/support-agent/support-query/pkg/utils"
)

// Completer is the completion endpoint. *llm.Client implements it.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

type Config struct {
	APIKey string
	Model  string
	// SystemPrompt is trusted instruction text. It must never contain user input.
	SystemPrompt string
	// Rates are used as given; zero rates price every call at 0.
	Rates Rates
}

type Engine struct {
	cfg       Config
	filter    *safety.Filter
	completer Completer
	now       func() time.Time
	newID     func() string
	log       *zap.Logger
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func NewEngine(cfg Config, filter *safety.Filter, completer Completer, opts ...Option) (*Engine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, config.ErrMissingAPIKey
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		return nil, errors.New("system prompt is empty")
	}
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if filter == nil {
		filter = safety.NewFilter(nil)
	}

	e := &Engine{
		cfg:       cfg,
		filter:    filter,
		completer: completer,
		now:       time.Now,
		newID:     utils.NewRequestID,
		log:       logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run answers one question. Unsafe input is not an error: it yields the fallback
// response and a record marked blocked, without calling the model.
func (e *Engine) Run(ctx context.Context, question string) (*response.Response, *models.MetricsRecord, error) {
	requestID := e.newID()
	userContent := strings.TrimSpace(question)
	questionHash := utils.QuestionHash(userContent)

	if verdict := e.filter.Check(userContent); !verdict.Safe {
		e.log.Warn("Question blocked by safety filter",
			zap.String("request_id", requestID),
			zap.String("question_hash", questionHash),
			zap.String("reason", verdict.Reason),
		)
		return safety.Fallback(), &models.MetricsRecord{
			RequestID:    requestID,
			QuestionHash: questionHash,
			Timestamp:    models.FormatTimestamp(e.now()),
			Blocked:      true,
		}, nil
	}

	start := e.now()
	completion, err := e.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: e.cfg.SystemPrompt,
		UserPrompt:   userContent,
	})
	if err != nil {
		return nil, nil, err
	}
	latencyMS := int64(math.Round(float64(e.now().Sub(start)) / float64(time.Millisecond)))

	content := StripCodeFence(completion.Content)
	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, nil, &ParseError{Content: content, Err: err}
	}

	resp, err := response.Decode(parsed)
	if err != nil {
		return nil, nil, err
	}

	usage := completion.Usage
	record := &models.MetricsRecord{
		RequestID:        requestID,
		QuestionHash:     questionHash,
		Timestamp:        models.FormatTimestamp(e.now()),
		Model:            e.cfg.Model,
		TokensPrompt:     usage.PromptTokens,
		TokensCompletion: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		LatencyMS:        latencyMS,
		EstimatedCostUSD: RoundUSD(EstimateCostUSD(usage.PromptTokens, usage.CompletionTokens, e.cfg.Rates)),
	}

	e.log.Info("Query processed",
		zap.String("request_id", requestID),
		zap.String("question_hash", questionHash),
		zap.Int("total_tokens", record.TotalTokens),
		zap.Int64("latency_ms", latencyMS),
		zap.Float64("estimated_cost_usd", record.EstimatedCostUSD),
		zap.Float64("confidence", resp.Confidence),
	)

	return resp, record, nil
}
