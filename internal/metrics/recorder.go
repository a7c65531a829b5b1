package metrics

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/support-agent/support-query/internal/storage/models"
)

// Sink stores or forwards one metrics record.
type Sink interface {
	Append(ctx context.Context, rec *models.MetricsRecord) error
}

type namedSink struct {
	name string
	sink Sink
}

// Recorder writes every record to a primary sink and, best effort, to secondary ones.
type Recorder struct {
	primary   Sink
	secondary []namedSink
	log       *zap.Logger
}

func NewRecorder(primary Sink, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{primary: primary, log: log}
}

// AddSink registers a secondary sink. Its failures are logged, never returned.
func (r *Recorder) AddSink(name string, sink Sink) {
	r.secondary = append(r.secondary, namedSink{name: name, sink: sink})
}

func (r *Recorder) Record(ctx context.Context, rec *models.MetricsRecord) error {
	if err := r.primary.Append(ctx, rec); err != nil {
		return fmt.Errorf("failed to record metrics: %w", err)
	}

	for _, s := range r.secondary {
		if err := s.sink.Append(ctx, rec); err != nil {
			r.log.Warn("Secondary metrics sink failed",
				zap.String("sink", s.name),
				zap.String("request_id", rec.RequestID),
				zap.Error(err),
			)
		}
	}
	return nil
}
