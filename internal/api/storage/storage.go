package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/OscarAspelin95/dx-go/internal/api/domain"
	"github.com/OscarAspelin95/dx-go/internal/api/model"
	"github.com/OscarAspelin95/dx-go/shared/postgresql"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

func (s *Storage) CreateSample(ctx context.Context, sample *model.Sample) error {
	query := `
		INSERT INTO fastq_samples (
			sample_id, name, status, url,
			pipeline, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		sample.SampleID,
		sample.Name,
		sample.Status,
		sample.URL,
		sample.Pipeline,
		sample.CreatedAt,
		sample.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create sample: %w", err)
	}

	return nil
}

func (s *Storage) GetSampleByID(ctx context.Context, sampleID string) (*model.Sample, error) {
	var sample model.Sample
	query := `
		SELECT
			sample_id, name, status, url,
			pipeline, created_at, updated_at
		FROM fastq_samples
		WHERE sample_id = $1
	`

	err := s.db.GetContext(ctx, &sample, query, sampleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSampleNotFound
		}
		return nil, fmt.Errorf("failed to get sample: %w", err)
	}

	return &sample, nil
}

// GetLatestPreprocess returns the newest result related to the sample, or
// nil when the sample has not been processed yet.
func (s *Storage) GetLatestPreprocess(ctx context.Context, sampleID string) (*model.Preprocess, error) {
	var preprocess model.Preprocess
	query := `
		SELECT
			p.preprocess_id, p.status, p.url, p.runtime_seconds,
			p.metrics_raw, p.metrics_filtered, p.created_at, p.updated_at
		FROM fastq_preprocesses p
		JOIN sample_preprocesses sp ON sp.preprocess_id = p.preprocess_id
		WHERE sp.sample_id = $1
		ORDER BY p.created_at DESC, p.preprocess_id DESC
		LIMIT 1
	`

	err := s.db.GetContext(ctx, &preprocess, query, sampleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest result: %w", err)
	}

	return &preprocess, nil
}

type SampleFilter struct {
	Status   string
	Pipeline string
	PageSize int
	Cursor   *SampleCursor
}

type SampleCursor struct {
	CreatedAt time.Time
	SampleID  string
}

func (s *Storage) ListSamples(ctx context.Context, filter SampleFilter) ([]model.Sample, error) {
	query := `
        SELECT
            sample_id, name, status, url,
            pipeline, created_at, updated_at
        FROM fastq_samples
        WHERE 1=1
    `
	args := []interface{}{}
	argIdx := 1

	// Filters
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Pipeline != "" {
		query += fmt.Sprintf(" AND pipeline = $%d", argIdx)
		args = append(args, filter.Pipeline)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, sample_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.SampleID)
		argIdx += 2
	}

	// Order by created_at DESC, sample_id DESC for consistent pagination
	query += " ORDER BY created_at DESC, sample_id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var samples []model.Sample
	err := s.db.SelectContext(ctx, &samples, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}

	return samples, nil
}
