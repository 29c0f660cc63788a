// Package outbox retries deferred streak updates and delivers workout events to Kafka.
package outbox

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/metrics"
	"alcyxob/gym-tracker/internal/repository"
	"alcyxob/gym-tracker/internal/streak"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Publisher writes messages to a topic. KafkaProducer implements it.
type Publisher interface {
	WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error
}

// StreakUpdater runs the streak engine for a user.
type StreakUpdater interface {
	Update(ctx context.Context, userID primitive.ObjectID) (*streak.Result, error)
}

type Config struct {
	Topic        string
	PollInterval time.Duration
	BatchSize    int
	ClaimTimeout time.Duration
	MaxAttempts  int
}

// Dispatcher drains the outbox collection.
type Dispatcher struct {
	repo             repository.OutboxRepository
	streaks          StreakUpdater
	publisher        Publisher
	cfg              Config
	metrics          *metrics.Manager
	onStreakUpdated  func(primitive.ObjectID)
	shutdownComplete chan struct{}
}

// NewDispatcher constructs a Dispatcher. publisher may be nil, in which case
// events are only used for deferred streak updates.
func NewDispatcher(repo repository.OutboxRepository, streaks StreakUpdater, publisher Publisher, cfg Config, m *metrics.Manager) *Dispatcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.ClaimTimeout <= 0 {
		cfg.ClaimTimeout = time.Minute
	}
	return &Dispatcher{
		repo:             repo,
		streaks:          streaks,
		publisher:        publisher,
		cfg:              cfg,
		metrics:          m,
		onStreakUpdated:  func(primitive.ObjectID) {},
		shutdownComplete: make(chan struct{}),
	}
}

// OnStreakUpdated registers a callback run after a deferred streak update changed a user.
func (d *Dispatcher) OnStreakUpdated(fn func(primitive.ObjectID)) {
	if fn != nil {
		d.onStreakUpdated = fn
	}
}

// Start runs the polling loop until ctx is cancelled. It should be called in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer func() {
		ticker.Stop()
		close(d.shutdownComplete)
	}()

	for {
		if _, err := d.ProcessBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("outbox: dispatcher error: %s", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait blocks until the dispatcher loop has exited.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

// ProcessBatch claims and handles one batch, returning how many events were claimed.
func (d *Dispatcher) ProcessBatch(ctx context.Context) (int, error) {
	start := time.Now()

	events, err := d.repo.ClaimBatch(ctx, d.cfg.BatchSize, d.cfg.ClaimTimeout)
	if err != nil {
		return 0, fmt.Errorf("claim batch: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}
	if d.metrics != nil {
		defer func() { d.metrics.HistOutboxBatchDuration.Observe(time.Since(start).Seconds()) }()
	}

	for i := range events {
		if ctx.Err() != nil {
			return i, ctx.Err()
		}
		d.processEvent(ctx, &events[i])
	}
	return len(events), nil
}

func (d *Dispatcher) processEvent(ctx context.Context, event *domain.OutboxEvent) {
	logger := log.WithFields(log.Fields{
		"event":   event.ID.Hex(),
		"user":    event.UserID.Hex(),
		"workout": event.WorkoutID.Hex(),
	})

	if err := d.handle(ctx, event); err != nil {
		logger.WithError(err).Warn("outbox: event failed")
		d.inc(func(m *metrics.Manager) { m.CounterOutboxFailed.Inc() })

		if markErr := d.repo.MarkFailed(ctx, event.ID, err.Error(), d.cfg.MaxAttempts); markErr != nil {
			logger.WithError(markErr).Error("outbox: mark failed")
			return
		}
		if d.cfg.MaxAttempts > 0 && event.Attempts+1 >= d.cfg.MaxAttempts {
			logger.WithError(err).Error("outbox: event exhausted its attempts")
			d.inc(func(m *metrics.Manager) { m.CounterOutboxDead.Inc() })
		}
		return
	}

	if err := d.repo.MarkProcessed(ctx, event.ID); err != nil {
		logger.WithError(err).Error("outbox: mark processed")
		return
	}
	d.inc(func(m *metrics.Manager) { m.CounterOutboxDelivered.Inc() })
}

func (d *Dispatcher) handle(ctx context.Context, event *domain.OutboxEvent) error {
	if event.NeedsStreak {
		res, err := d.streaks.Update(ctx, event.UserID)
		if err != nil {
			return fmt.Errorf("streak update: %w", err)
		}
		if res.Updated {
			d.onStreakUpdated(event.UserID)
		}
	}

	if d.publisher == nil || len(event.Payload) == 0 {
		return nil
	}
	err := d.publisher.WriteMessages(ctx, d.cfg.Topic, kafka.Message{
		Key:   []byte(event.UserID.Hex()),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
		Time: event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (d *Dispatcher) inc(fn func(*metrics.Manager)) {
	if d.metrics != nil {
		fn(d.metrics)
	}
}
