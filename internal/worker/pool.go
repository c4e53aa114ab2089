// Package worker implements the buffered sink that ships simulated goal
// events into ClickHouse. Simulation stays synchronous and bounded; the
// analytics write path is decoupled behind a queue with batch inserts and
// a graceful-shutdown flush.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/cardkick/league-engine/internal/models"
)

// Prometheus metrics
var (
	eventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "league_goal_events_ingested_total",
		Help: "Total number of goal events accepted by the sink",
	})

	eventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "league_goal_events_processed_total",
		Help: "Total number of goal events written to ClickHouse",
	})

	eventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "league_goal_events_failed_total",
		Help: "Total number of goal events that failed to write",
	})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "league_goal_events_dropped_total",
		Help: "Total number of goal events dropped because the queue was full",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "league_sink_queue_depth",
		Help: "Current depth of the sink queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "league_batch_insert_duration_seconds",
		Help:    "Duration of batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})
)

// Job is one queued goal event with its receipt time.
type Job struct {
	Event      models.GoalEvent
	EnqueuedAt time.Time
}

// PoolConfig configures the sink pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Logger        *zap.Logger
}

// Pool manages the sink workers
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
}

// NewPool creates a new sink pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 4096
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	go p.reportQueueDepth()

	p.logger.Infow("Goal event sink started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop gracefully shuts the sink down. The queue is closed first so the
// workers drain and flush everything queued before the context falls.
// Stop is the only way to end the workers; a cancelled parent context
// alone keeps them draining so no queued event is lost.
func (p *Pool) Stop() {
	close(p.jobQueue)
	p.wg.Wait()
	p.cancel()
	p.logger.Info("Goal event sink stopped")
}

// Enqueue adds an event to the queue without blocking the simulation path.
// A full queue sheds the event and reports false.
func (p *Pool) Enqueue(event models.GoalEvent) bool {
	job := Job{Event: event, EnqueuedAt: time.Now()}

	// Protect against sending on closed channel
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue event (sink stopped)", "error", r)
		}
	}()

	select {
	case p.jobQueue <- job:
		eventsIngested.Inc()
		return true
	default:
		eventsDropped.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}

// worker drains the queue in batches, flushing on size, interval or
// shutdown.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Job, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.processBatch(batch); err != nil {
			p.logger.Errorw("Batch insert failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			eventsFailed.Add(float64(len(batch)))
		} else {
			eventsProcessed.Add(float64(len(batch)))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, job)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-p.ctx.Done():
			// A cancelled parent context must not strand queued events:
			// keep draining until Stop closes the queue.
			for job := range p.jobQueue {
				batch = append(batch, job)
				if len(batch) >= p.config.BatchSize {
					flush()
				}
			}
			flush()
			return
		}
	}
}

func (p *Pool) processBatch(batch []Job) error {
	ctx := context.Background()

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO league_stats.goal_events (
			match_id, cohort_id, matchday, minute, side,
			team_id, player_id, player_name, recorded_at
		)
	`)
	if err != nil {
		return err
	}

	for _, job := range batch {
		event := job.Event
		if err := chBatch.Append(
			event.MatchID.String(),
			event.CohortID.String(),
			event.Matchday,
			event.Minute,
			string(event.Side),
			event.TeamID.String(),
			event.PlayerID.String(),
			event.PlayerName,
			job.EnqueuedAt,
		); err != nil {
			p.logger.Warnw("Failed to append event to batch",
				"error", err,
				"match", event.MatchID,
			)
			continue
		}
	}

	return chBatch.Send()
}
