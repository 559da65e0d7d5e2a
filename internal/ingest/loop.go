// Package ingest consumes readings from a stream and drives them through
// classification and persistence with at-least-once delivery.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/tejusbharadwaj/meterwatch/internal/models"
)

// DefaultWorkers is the size of a loop's worker pool when none is configured.
const DefaultWorkers = 10

// Handler classifies and persists one reading.
type Handler interface {
	Ingest(ctx context.Context, r models.Reading) error
}

// LoopConfig tunes a Loop. Zero values select the defaults.
type LoopConfig struct {
	Name    string
	Workers int
	Backoff Backoff
}

// Loop moves messages from a Source through a Handler. Messages are handled
// one at a time and a message is committed only after it was handled.
type Loop struct {
	name    string
	source  Source
	handler Handler
	backoff Backoff
	workers *pool.Pool
	logger  *logrus.Logger
}

func NewLoop(cfg LoopConfig, source Source, handler Handler, logger *logrus.Logger) *Loop {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Backoff.Base <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.Backoff.Max < cfg.Backoff.Base {
		cfg.Backoff.Max = cfg.Backoff.Base
	}
	return &Loop{
		name:    cfg.Name,
		source:  source,
		handler: handler,
		backoff: cfg.Backoff,
		workers: pool.New().WithMaxGoroutines(cfg.Workers),
		logger:  logger,
	}
}

// Run consumes until the source closes, ctx is canceled or a message fails
// permanently. It returns nil when the source closed, ctx.Err() on
// cancellation, and otherwise the fatal error. Receive errors are retried
// with the loop's backoff; a panic while handling a message is fatal.
//
// Work in flight when ctx is canceled is abandoned, not awaited.
func (l *Loop) Run(ctx context.Context) error {
	log := l.logger.WithField("loop", l.name)
	log.Info("Ingestion loop started")

	receiveFailures := 0
	for {
		msg, err := l.source.Receive(ctx)
		if errors.Is(err, ErrSourceClosed) {
			log.Info("Source closed, ingestion loop stopping")
			l.workers.Wait()
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Ingestion loop canceled")
				return ctx.Err()
			}
			if receiveFailures >= l.backoff.MaxRetries {
				log.WithError(err).Error("Ingestion loop failed")
				return fmt.Errorf("%w: receive after %d retries: %v", ErrRetriesExhausted, receiveFailures, err)
			}

			delay := l.backoff.Delay(receiveFailures)
			receiveFailures++
			retries.WithLabelValues(l.name).Inc()
			log.WithError(err).WithFields(logrus.Fields{
				"attempt": receiveFailures,
				"delay":   delay,
			}).Warn("Receive failed, retrying")

			if err := sleep(ctx, delay); err != nil {
				log.Info("Ingestion loop canceled")
				return err
			}
			continue
		}
		receiveFailures = 0

		done := make(chan error, 1)
		l.workers.Go(func() {
			defer func() {
				if p := recover(); p != nil {
					messagesProcessed.WithLabelValues(l.name, "panic").Inc()
					done <- fmt.Errorf("%w: message %s: %v\n%s", ErrHandlerPanic, msg.ID, p, debug.Stack())
				}
			}()
			done <- l.handle(ctx, msg)
		})

		select {
		case err := <-done:
			if err != nil {
				log.WithError(err).WithField("message_id", msg.ID).Error("Ingestion loop failed")
				l.workers.Wait()
				return err
			}
		case <-ctx.Done():
			log.Info("Ingestion loop canceled")
			return ctx.Err()
		}
	}
}

// handle runs the classify, persist and commit unit for msg, retrying it
// with backoff. Calls into the handler and the source use a context that
// outlives cancellation of ctx; only the waits between retries observe it.
func (l *Loop) handle(ctx context.Context, msg Message) error {
	work := context.WithoutCancel(ctx)
	log := l.logger.WithFields(logrus.Fields{"loop": l.name, "message_id": msg.ID})

	for attempt := 0; ; attempt++ {
		start := time.Now()
		err := l.attempt(work, msg)
		attemptDuration.WithLabelValues(l.name).Observe(time.Since(start).Seconds())

		if err == nil {
			messagesProcessed.WithLabelValues(l.name, "committed").Inc()
			return nil
		}
		if errors.Is(err, models.ErrInvalidReading) {
			messagesProcessed.WithLabelValues(l.name, "invalid").Inc()
			return err
		}
		if attempt >= l.backoff.MaxRetries {
			messagesProcessed.WithLabelValues(l.name, "exhausted").Inc()
			return fmt.Errorf("%w: message %s after %d retries: %v", ErrRetriesExhausted, msg.ID, attempt, err)
		}

		delay := l.backoff.Delay(attempt)
		retries.WithLabelValues(l.name).Inc()
		log.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay,
		}).Warn("Attempt failed, retrying")

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (l *Loop) attempt(ctx context.Context, msg Message) error {
	r, err := DecodeReading(msg.Data)
	if err != nil {
		return err
	}
	if err := l.handler.Ingest(ctx, r); err != nil {
		return err
	}
	if err := l.source.Commit(ctx, msg); err != nil {
		return fmt.Errorf("commit %s: %w", msg.ID, err)
	}
	return nil
}
