// Package historian drains win records from the Redis queue and archives
// them in PostgreSQL in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/termo/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// popper is the subset of *redis.Client the service reads with.
type popper interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// WinStore persists a batch of wins atomically.
type WinStore interface {
	InsertWins(ctx context.Context, recs []cache.WinRecord) error
}

// Options tunes batching.
type Options struct {
	Queue         string
	BatchSize     int
	FlushInterval time.Duration
	PopTimeout    time.Duration
}

func (o Options) withDefaults() Options {
	if o.Queue == "" {
		o.Queue = cache.DefaultQueueName
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = 5 * time.Second
	}
	if o.PopTimeout <= 0 {
		o.PopTimeout = time.Second
	}
	return o
}

// Service moves win records from Redis to the archive.
type Service struct {
	rdb    popper
	store  WinStore
	opts   Options
	logger logrus.FieldLogger

	batchMu sync.Mutex
	batch   []cache.WinRecord
}

// NewService constructs a Service. Zero option values take defaults.
func NewService(rdb popper, store WinStore, opts Options, logger logrus.FieldLogger) *Service {
	opts = opts.withDefaults()
	return &Service{
		rdb:    rdb,
		store:  store,
		opts:   opts,
		logger: logger,
		batch:  make([]cache.WinRecord, 0, opts.BatchSize),
	}
}

// maxPending bounds how many records are held while the archive is failing.
func (s *Service) maxPending() int { return s.opts.BatchSize * 10 }

// Run pops records until ctx is cancelled, flushing whenever the batch is
// full or FlushInterval elapses. Pending records are flushed once more on
// the way out.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.FlushInterval)
	defer ticker.Stop()

	s.logger.WithField("queue", s.opts.Queue).Info("historian started")
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.Flush(flushCtx)
		s.logger.Info("historian stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		default:
			s.popOnce(ctx)
		}
	}
}

// popOnce waits up to PopTimeout for one record and appends it to the batch.
func (s *Service) popOnce(ctx context.Context) {
	res, err := s.rdb.BLPop(ctx, s.opts.PopTimeout, s.opts.Queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			s.logger.WithError(err).Error("BLPop failed")
			// Back off so a dead Redis does not spin the loop.
			select {
			case <-ctx.Done():
			case <-time.After(s.opts.PopTimeout):
			}
		}
		return
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return
	}

	var rec cache.WinRecord
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		s.logger.WithError(err).Warn("invalid win record")
		return
	}
	if s.append(rec) {
		s.Flush(ctx)
	}
}

// append adds rec and reports whether the batch is full.
func (s *Service) append(rec cache.WinRecord) bool {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.batch = append(s.batch, rec)
	return len(s.batch) >= s.opts.BatchSize
}

// Pending returns the number of records waiting to be flushed.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

// Flush writes the current batch. On failure the records stay queued for
// the next flush, up to maxPending; the oldest beyond that are dropped.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	if len(s.batch) == 0 {
		return
	}
	pending := make([]cache.WinRecord, len(s.batch))
	copy(pending, s.batch)

	if err := s.store.InsertWins(ctx, pending); err != nil {
		s.logger.WithError(err).WithField("count", len(pending)).Error("failed to archive wins")
		if over := len(s.batch) - s.maxPending(); over > 0 {
			s.logger.WithField("dropped", over).Warn("archive backlog full, dropping oldest wins")
			s.batch = append(s.batch[:0], s.batch[over:]...)
		}
		return
	}
	s.batch = s.batch[:0]
	s.logger.WithField("count", len(pending)).Info("archived wins")
}
