// Package jsonfile persists metrics records as a single human-readable JSON array.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/support-agent/support-query/internal/storage/models"
	"github.com/support-agent/support-query/pkg/logger"
)

// Store rewrites the whole file on every append. Appends through one Store are
// serialized; separate processes writing the same file can still lose updates.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Append adds rec to the end of the stored sequence, creating the file if needed.
func (s *Store) Append(ctx context.Context, rec *models.MetricsRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics dir: %w", err)
	}

	records, err := s.read()
	if err != nil {
		return err
	}
	records = append(records, rawRecord(rec))

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}

	logger.Debug("Metrics record appended",
		zap.String("path", s.path),
		zap.String("request_id", rec.RequestID),
		zap.Int("records", len(records)),
	)
	return nil
}

// Load returns every stored record in append order.
func (s *Store) Load() ([]models.MetricsRecord, error) {
	s.mu.Lock()
	raws, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	records := make([]models.MetricsRecord, 0, len(raws))
	for i, raw := range raws {
		var rec models.MetricsRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode metrics record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// read keeps existing entries as raw JSON so fields written by older versions survive a rewrite.
func (s *Store) read() ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] != '[' {
		// Older files held a single object instead of a list.
		var single json.RawMessage
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("failed to parse metrics: %w", err)
		}
		return []json.RawMessage{single}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse metrics: %w", err)
	}
	return records, nil
}

func rawRecord(rec *models.MetricsRecord) json.RawMessage {
	// MetricsRecord only holds strings, numbers and bools; Marshal cannot fail.
	data, _ := json.Marshal(rec)
	return data
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
