package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/OscarAspelin95/dx-go/internal/pipeline"
	"github.com/OscarAspelin95/dx-go/internal/worker/domain"
	"github.com/OscarAspelin95/dx-go/shared/postgresql"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.GetDB(),
		logger: logger,
	}
}

// RecordResult persists one completed processing pass: the result row
// first, then the sample-to-result relation. Writes are sequential and
// non-transactional; the relation is only written after the result row
// exists, so a crash in between leaves an unrelated result row, never a
// dangling relation. Redelivered messages append a fresh result row.
func (s *Storage) RecordResult(ctx context.Context, rec *domain.ResultRecord) error {
	preprocessID := uuid.New().String()
	now := time.Now()

	metricsRaw, err := json.Marshal(rec.MetricsRaw)
	if err != nil {
		return fmt.Errorf("failed to marshal raw metrics: %w", err)
	}

	metricsFiltered, err := json.Marshal(rec.MetricsFiltered)
	if err != nil {
		return fmt.Errorf("failed to marshal filtered metrics: %w", err)
	}

	resultQuery := `
		INSERT INTO fastq_preprocesses (
			preprocess_id, status, url, runtime_seconds,
			metrics_raw, metrics_filtered, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8
		)
	`

	_, err = s.db.ExecContext(
		ctx,
		resultQuery,
		preprocessID,
		pipeline.StatusDone,
		rec.ResultURL,
		rec.RuntimeSeconds,
		metricsRaw,
		metricsFiltered,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	relationQuery := `
		INSERT INTO sample_preprocesses (sample_id, preprocess_id, created_at)
		VALUES ($1, $2, $3)
	`

	_, err = s.db.ExecContext(ctx, relationQuery, rec.SampleID, preprocessID, now)
	if err != nil {
		return fmt.Errorf("failed to relate result %s to sample %s: %w",
			preprocessID, rec.SampleID, err)
	}

	s.logger.Info("Result recorded",
		slog.String("sample_id", rec.SampleID),
		slog.String("preprocess_id", preprocessID),
		slog.Int64("runtime_seconds", rec.RuntimeSeconds),
	)

	// The sample's status is bookkeeping, not durability: the message must
	// not be redelivered just because this update failed.
	statusQuery := `
		UPDATE fastq_samples
		SET status = $1, updated_at = $2
		WHERE sample_id = $3
	`

	if _, err := s.db.ExecContext(ctx, statusQuery, pipeline.StatusDone, now, rec.SampleID); err != nil {
		s.logger.Warn("Failed to update sample status",
			slog.String("sample_id", rec.SampleID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}
