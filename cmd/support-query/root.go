package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/support-agent/support-query/internal/cache/redis"
	"github.com/support-agent/support-query/internal/llm"
	"github.com/support-agent/support-query/internal/metrics"
	"github.com/support-agent/support-query/internal/query"
	"github.com/support-agent/support-query/internal/safety"
	"github.com/support-agent/support-query/internal/storage/jsonfile"
	"github.com/support-agent/support-query/internal/storage/sqlite"
	"github.com/support-agent/support-query/pkg/config"
	"github.com/support-agent/support-query/pkg/logger"
)

var errEmptyQuestion = errors.New("no question given")

type rootOptions struct {
	configFile  string
	logLevel    string
	metricsFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "support-query [question...]",
		Short: "Answer a customer support question with an LLM",
		Long: `Screens the question with the safety filter, asks the completion endpoint for a
structured answer and prints it as JSON. Usage metrics for the call are appended to
the metrics file and echoed on stderr.

The question is taken from the arguments, or from stdin when none are given.`,
		Example:       `  support-query "How do I reset my password?"`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := readQuestion(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if question == "" {
				fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
				return errEmptyQuestion
			}
			return runQuery(cmd.Context(), opts, question, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&opts.metricsFile, "metrics-file", "", "path of the JSON metrics file")

	cmd.AddCommand(newStatsCmd(opts))
	return cmd
}

func readQuestion(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read question from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// loadConfig applies flag overrides and initializes the global logger.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.metricsFile != "" {
		cfg.Metrics.Path = opts.metricsFile
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func runQuery(ctx context.Context, opts *rootOptions, question string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	systemPrompt, err := config.LoadSystemPrompt(cfg.Prompts.SystemPromptPath)
	if err != nil {
		return err
	}

	lists, err := safety.LoadLists(cfg.Prompts.BadWordsPath, cfg.Prompts.InjectionPhrasesPath)
	if err != nil {
		return err
	}

	client := llm.NewClient(llm.Options{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	})

	engine, err := query.NewEngine(query.Config{
		APIKey:       cfg.LLM.APIKey,
		Model:        cfg.LLM.Model,
		SystemPrompt: systemPrompt,
		Rates: query.Rates{
			InputPer1M:  cfg.LLM.InputCostPer1M,
			OutputPer1M: cfg.LLM.OutputCostPer1M,
		},
	}, safety.NewFilter(lists), client)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	recorder, closeSinks := buildRecorder(ctx, cfg, registry)
	defer closeSinks()

	resp, record, err := engine.Run(ctx, question)
	if err != nil {
		logger.Error("Query failed", zap.Error(err))
		return err
	}

	if err := recorder.Record(ctx, record); err != nil {
		return err
	}
	logger.Info("Metrics recorded",
		zap.String("request_id", record.RequestID),
		zap.String("path", cfg.Metrics.Path),
		zap.Bool("blocked", record.Blocked),
	)

	if cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath, registry); err != nil {
			logger.Warn("Failed to export prometheus metrics", zap.Error(err))
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}
	fmt.Fprintf(stderr, "\n# metrics: %s\n", line)
	return nil
}

// buildRecorder wires the JSON store plus whichever optional sinks are configured.
// An optional sink that cannot be opened is skipped with a warning.
func buildRecorder(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*metrics.Recorder, func()) {
	var closers []func() error

	recorder := metrics.NewRecorder(jsonfile.NewStore(cfg.Metrics.Path), logger.GetLogger())

	if cfg.Metrics.SQLitePath != "" {
		if db, err := openSQLite(cfg.Metrics.SQLitePath); err != nil {
			logger.Warn("SQLite metrics sink disabled", zap.Error(err))
		} else {
			closers = append(closers, db.Close)
			recorder.AddSink("sqlite", db)
		}
	}

	if cfg.Redis.Addr != "" {
		if rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			logger.Warn("Redis metrics sink disabled", zap.Error(err))
		} else {
			closers = append(closers, rdb.Close)
			recorder.AddSink("redis", rdb)
		}
	}

	if cfg.Metrics.TextfilePath != "" {
		recorder.AddSink("prometheus", metrics.NewCollectors(reg))
	}

	return recorder, func() {
		for _, closeFn := range closers {
			_ = closeFn()
		}
	}
}

func openSQLite(path string) (*sqlite.Client, error) {
	db, err := sqlite.NewClient(path)
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
