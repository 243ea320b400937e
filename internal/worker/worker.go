// Package worker pulls job messages from the durable stream and runs each
// one through the processing workflow, acknowledging only after the result
// is persisted.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/OscarAspelin95/dx-go/internal/worker/domain"
)

// jobProcessor is the per-message workflow. Satisfied by *Processor.
type jobProcessor interface {
	Process(ctx context.Context, data []byte) error
}

// messageSource is the subset of jetstream.Consumer the worker uses.
type messageSource interface {
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Consumer      messageSource
	Processor     jobProcessor
	Metrics       *Metrics
	Concurrency   int
	FetchWait     time.Duration
	NakBackoff    time.Duration
	NakBackoffMax time.Duration
}

// Worker runs N independent pull loops against the durable consumer
type Worker struct {
	logger        *slog.Logger
	consumer      messageSource
	processor     jobProcessor
	metrics       *Metrics
	concurrency   int
	fetchWait     time.Duration
	nakBackoff    time.Duration
	nakBackoffMax time.Duration
	wg            sync.WaitGroup
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:        cfg.Logger,
		consumer:      cfg.Consumer,
		processor:     cfg.Processor,
		metrics:       cfg.Metrics,
		concurrency:   cfg.Concurrency,
		fetchWait:     cfg.FetchWait,
		nakBackoff:    cfg.NakBackoff,
		nakBackoffMax: cfg.NakBackoffMax,
	}
}

// Start spawns the pull loops and blocks until the context is canceled and
// every in-flight message has been settled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.Int("concurrency", w.concurrency),
		slog.Duration("fetch_wait", w.fetchWait),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.pullLoop(ctx, i)
	}

	<-ctx.Done()
	w.logger.Info("Worker context canceled, waiting for in-flight jobs")
	w.wg.Wait()
	w.logger.Info("Worker stopped")

	return nil
}

// pullLoop fetches one message at a time and settles it before fetching the
// next. Each loop is fully independent of its siblings.
func (w *Worker) pullLoop(ctx context.Context, loopNum int) {
	defer w.wg.Done()

	loopName := fmt.Sprintf("loop-%d", loopNum)
	w.logger.Info("Pull loop started",
		slog.String("loop", loopName),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Pull loop stopping - context canceled",
				slog.String("loop", loopName),
			)
			return
		default:
		}

		batch, err := w.consumer.Fetch(1, jetstream.FetchMaxWait(w.fetchWait))
		if err != nil {
			w.logger.Warn("Failed to fetch from consumer",
				slog.String("loop", loopName),
				slog.String("error", err.Error()),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.fetchWait):
			}
			continue
		}

		for msg := range batch.Messages() {
			w.handle(ctx, loopName, msg)
		}

		if err := batch.Error(); err != nil {
			w.logger.Warn("Fetch batch ended with error",
				slog.String("loop", loopName),
				slog.String("error", err.Error()),
			)
		}
	}
}

// handle runs the processor on one message and settles it: ack on success,
// nak with a delay otherwise. The ack happens strictly after the result has
// been recorded; a crash before that point leaves the message unsettled and
// the broker redelivers it.
func (w *Worker) handle(ctx context.Context, loopName string, msg jetstream.Msg) {
	w.metrics.Processed.Inc()

	// There is no mid-job cancellation: the loop context only decides
	// whether to fetch again, so a shutdown lets the in-flight message run
	// to completion and be settled instead of aborting it into redelivery.
	procCtx := context.WithoutCancel(ctx)

	timer := prometheus.NewTimer(w.metrics.Duration)
	err := w.processor.Process(procCtx, msg.Data())
	timer.ObserveDuration()

	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			w.logger.Error("Failed to ACK message",
				slog.String("loop", loopName),
				slog.String("error", ackErr.Error()),
			)
			return
		}
		w.metrics.Acked.Inc()
		return
	}

	delay := w.nakBackoffMax
	if domain.IsRetryable(err) {
		delay = w.nakDelay(deliveries(msg))
		w.logger.Error("Job processing failed, will redeliver",
			slog.String("loop", loopName),
			slog.String("error", err.Error()),
			slog.Duration("delay", delay),
		)
	} else {
		// Poison: the message can never succeed. There is no dead-letter
		// stream, so it cycles at the maximum delay and stays visible in
		// logs and metrics until the stream evicts it.
		w.metrics.Poison.Inc()
		w.logger.Error("Poison message, redelivering at maximum delay",
			slog.String("loop", loopName),
			slog.String("error", err.Error()),
			slog.Duration("delay", delay),
		)
	}

	if nakErr := msg.NakWithDelay(delay); nakErr != nil {
		w.logger.Error("Failed to NACK message",
			slog.String("loop", loopName),
			slog.String("error", nakErr.Error()),
		)
		return
	}
	w.metrics.Nacked.Inc()
}

// nakDelay doubles the base backoff per prior delivery, capped.
func (w *Worker) nakDelay(delivered uint64) time.Duration {
	delay := w.nakBackoff
	for i := uint64(1); i < delivered; i++ {
		delay *= 2
		if delay >= w.nakBackoffMax {
			return w.nakBackoffMax
		}
	}
	return delay
}

// deliveries reads the delivery count from the message metadata, defaulting
// to first delivery when the metadata is unavailable.
func deliveries(msg jetstream.Msg) uint64 {
	meta, err := msg.Metadata()
	if err != nil || meta == nil {
		return 1
	}
	return meta.NumDelivered
}
