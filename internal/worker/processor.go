package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/OscarAspelin95/dx-go/internal/fastq"
	"github.com/OscarAspelin95/dx-go/internal/pipeline"
	"github.com/OscarAspelin95/dx-go/internal/worker/domain"
	"github.com/OscarAspelin95/dx-go/shared/objectstore"
)

// Gateway moves artifacts between the local filesystem and the object store.
type Gateway interface {
	Download(ctx context.Context, url, dst string) error
	UploadFile(ctx context.Context, bucket, key, path string) (string, error)
}

// Recorder persists the outcome of one processing pass. The message is
// acknowledged only after the recorder returns successfully.
type Recorder interface {
	RecordResult(ctx context.Context, rec *domain.ResultRecord) error
}

// Processor runs the full per-message workflow: decode, download,
// transform, upload, record.
type Processor struct {
	gateway      Gateway
	transformer  fastq.Transformer
	recorder     Recorder
	resultBucket string
	logger       *slog.Logger
}

// ProcessorConfig holds processor dependencies
type ProcessorConfig struct {
	Gateway      Gateway
	Transformer  fastq.Transformer
	Recorder     Recorder
	ResultBucket string
	Logger       *slog.Logger
}

// NewProcessor creates a new Processor instance
func NewProcessor(cfg *ProcessorConfig) *Processor {
	return &Processor{
		gateway:      cfg.Gateway,
		transformer:  cfg.Transformer,
		recorder:     cfg.Recorder,
		resultBucket: cfg.ResultBucket,
		logger:       cfg.Logger,
	}
}

// Process handles one stream payload end to end. Errors wrapped in
// domain.RetryableError are transient and worth a redelivery; everything
// else can never succeed and is poison to the stream.
func (p *Processor) Process(ctx context.Context, data []byte) error {
	start := time.Now()

	msg, err := pipeline.DecodeJobMessage(data)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}

	p.logger.Info("Processing job",
		slog.String("sample_id", msg.FastqSampleID),
		slog.String("url", msg.URL),
	)

	// Reject a bad URL before touching the store or the filesystem.
	parsed, err := objectstore.ParseURL(msg.URL)
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", "fastq-job-")
	if err != nil {
		return domain.NewRetryableError(fmt.Errorf("failed to create work dir: %w", err))
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, filepath.Base(parsed.Key))
	if err := p.gateway.Download(ctx, msg.URL, inputPath); err != nil {
		if errors.Is(err, objectstore.ErrMalformedURL) {
			return err
		}
		return domain.NewRetryableError(fmt.Errorf("failed to download input: %w", err))
	}

	result, err := p.transformer.Transform(ctx, inputPath, workDir)
	if err != nil {
		return domain.NewRetryableError(fmt.Errorf("failed to transform %q: %w", inputPath, err))
	}

	// Key is deterministic per sample so a redelivered message overwrites
	// its own artifact instead of duplicating it.
	resultKey := fmt.Sprintf("%s/%s", msg.FastqSampleID, fastq.FilteredFileName)
	resultURL, err := p.gateway.UploadFile(ctx, p.resultBucket, resultKey, result.FilteredPath)
	if err != nil {
		return domain.NewRetryableError(fmt.Errorf("failed to upload result: %w", err))
	}

	record := &domain.ResultRecord{
		SampleID:        msg.FastqSampleID,
		ResultURL:       resultURL,
		RuntimeSeconds:  int64(time.Since(start).Seconds()),
		MetricsRaw:      result.MetricsRaw,
		MetricsFiltered: result.MetricsFiltered,
	}

	if err := p.recorder.RecordResult(ctx, record); err != nil {
		return domain.NewRetryableError(fmt.Errorf("failed to record result: %w", err))
	}

	p.logger.Info("Job processed",
		slog.String("sample_id", msg.FastqSampleID),
		slog.String("result_url", resultURL),
		slog.Int("reads_raw", result.MetricsRaw.NumReads),
		slog.Int("reads_filtered", result.MetricsFiltered.NumReads),
		slog.Duration("runtime", time.Since(start)),
	)

	return nil
}
