// Package scheduler advances the competition calendar. A daily trigger
// executes every due scheduled matchday, an hourly sweep recovers runs the
// daily trigger missed, and both funnel into one atomic execution path so
// a retry can never initialize a matchday twice.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cardkick/league-engine/internal/logic"
	"github.com/cardkick/league-engine/internal/models"
	"github.com/cardkick/league-engine/internal/store"
)

// Prometheus metrics
var (
	matchdaysExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "league_matchdays_executed_total",
		Help: "Total number of scheduled matchdays executed",
	})

	matchdaysSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "league_matchdays_skipped_total",
		Help: "Total number of matchday executions skipped (incomplete cohort)",
	})

	matchdayConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "league_matchday_conflicts_total",
		Help: "Total number of executions that lost the already-executed race",
	})

	staleMatchdays = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "league_matchdays_stale",
		Help: "Pending matchdays older than the recovery lookback window",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "league_scheduler_run_duration_seconds",
		Help:    "Duration of scheduler runs",
		Buckets: prometheus.DefBuckets,
	})
)

// Store is the persistence surface the scheduler drives. ExecuteMatchday
// must apply table initialization, the executed-flag transition and the
// next-record insert as one transaction, and must return
// store.ErrAlreadyExecuted when the flag was flipped by someone else.
type Store interface {
	DuePending(ctx context.Context, before time.Time) ([]models.ScheduledMatchday, error)
	PendingBetween(ctx context.Context, from, to time.Time) ([]models.ScheduledMatchday, error)
	StalePending(ctx context.Context, before time.Time) ([]models.ScheduledMatchday, error)
	CohortTeams(ctx context.Context, cohortID uuid.UUID) ([]models.Team, error)
	ExecuteMatchday(ctx context.Context, record models.ScheduledMatchday, pairings []logic.Pairing, next models.ScheduledMatchday, now time.Time) error
	CreateScheduled(ctx context.Context, record models.ScheduledMatchday) error
}

// LockClient is the slice of redis used to fence duplicate process
// instances. The SQL compare-and-set remains the correctness backstop; the
// lock only avoids racing the same record's table work.
type LockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Config tunes the calendar cadence.
type Config struct {
	TriggerHour   int // time-of-day the daily trigger fires
	TriggerMinute int
	Location      *time.Location // timezone the time-of-day is anchored in
	IntervalDays  int            // days between matchdays
	RecoveryAfter time.Duration  // minimum lateness before the sweep picks a record up
	Lookback      time.Duration  // maximum lateness the sweep still recovers
	LockTTL       time.Duration
}

func (c *Config) applyDefaults() {
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.IntervalDays <= 0 {
		c.IntervalDays = 1
	}
	if c.RecoveryAfter <= 0 {
		c.RecoveryAfter = time.Hour
	}
	if c.Lookback <= 0 {
		c.Lookback = 24 * time.Hour
	}
	if c.LockTTL <= 0 {
		c.LockTTL = time.Minute
	}
}

// Scheduler owns its clock so the trigger paths are drivable from tests
// without waiting on real time.
type Scheduler struct {
	store  Store
	locks  LockClient
	config Config
	logger *zap.SugaredLogger
	now    func() time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(st Store, locks LockClient, cfg Config, logger *zap.Logger) *Scheduler {
	cfg.applyDefaults()
	return &Scheduler{
		store:  st,
		locks:  locks,
		config: cfg,
		logger: logger.Sugar(),
		now:    time.Now,
	}
}

// Start launches the daily trigger and the hourly recovery sweep. Both are
// long-lived until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.dailyLoop(ctx)
	go s.recoveryLoop(ctx)

	s.logger.Infow("Matchday scheduler started",
		"triggerHour", s.config.TriggerHour,
		"triggerMinute", s.config.TriggerMinute,
		"timezone", s.config.Location.String(),
		"intervalDays", s.config.IntervalDays,
	)
}

// Stop shuts the timer loops down and waits for in-flight runs.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Matchday scheduler stopped")
}

func (s *Scheduler) dailyLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		next := s.nextTrigger(s.now())
		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-timer.C:
			if err := s.RunDue(ctx, s.now()); err != nil {
				s.logger.Errorw("Daily matchday run failed", "error", err)
			}
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (s *Scheduler) recoveryLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.RunRecovery(ctx, s.now()); err != nil {
				s.logger.Errorw("Recovery sweep failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// RunDue executes every pending record whose target time has passed. It is
// the manually invokable entry point behind the daily trigger.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) error {
	start := time.Now()
	defer func() { runDuration.Observe(time.Since(start).Seconds()) }()

	records, err := s.store.DuePending(ctx, now)
	if err != nil {
		return fmt.Errorf("load due records: %w", err)
	}
	return s.executeAll(ctx, records, now)
}

// RunRecovery executes pending records between RecoveryAfter and Lookback
// late. Older records are not auto-recovered; they are surfaced through a
// staleness warning and a gauge, and stay pending for manual handling.
func (s *Scheduler) RunRecovery(ctx context.Context, now time.Time) error {
	start := time.Now()
	defer func() { runDuration.Observe(time.Since(start).Seconds()) }()

	from := now.Add(-s.config.Lookback)
	to := now.Add(-s.config.RecoveryAfter)

	records, err := s.store.PendingBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("load recoverable records: %w", err)
	}
	if err := s.executeAll(ctx, records, now); err != nil {
		return err
	}

	stale, err := s.store.StalePending(ctx, from)
	if err != nil {
		return fmt.Errorf("load stale records: %w", err)
	}
	staleMatchdays.Set(float64(len(stale)))
	for _, record := range stale {
		s.logger.Warnw("Matchday beyond recovery lookback, left pending",
			"record", record.ID,
			"cohort", record.CohortID,
			"matchday", record.Matchday,
			"scheduledAt", record.ScheduledAt,
		)
	}
	return nil
}

// executeAll runs records concurrently; every record belongs to a distinct
// cohort, so executions never contend on the same rows.
func (s *Scheduler) executeAll(ctx context.Context, records []models.ScheduledMatchday, now time.Time) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, record := range records {
		record := record
		g.Go(func() error {
			return s.execute(gctx, record, now)
		})
	}
	return g.Wait()
}

func (s *Scheduler) execute(ctx context.Context, record models.ScheduledMatchday, now time.Time) error {
	if !s.acquireLock(ctx, record) {
		s.logger.Infow("Record locked by another instance, skipping",
			"record", record.ID,
		)
		return nil
	}

	teams, err := s.store.CohortTeams(ctx, record.CohortID)
	if err != nil {
		return fmt.Errorf("cohort %s teams: %w", record.CohortID, err)
	}
	pairings, err := logic.GenerateFixtures(teams)
	if errors.Is(err, logic.ErrInvalidCohortSize) {
		// Left pending: the next tick or a manual trigger retries it.
		matchdaysSkipped.Inc()
		s.logger.Warnw("Cohort incomplete, matchday left pending",
			"record", record.ID,
			"cohort", record.CohortID,
			"teams", len(teams),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("generate fixtures for cohort %s: %w", record.CohortID, err)
	}

	next := models.ScheduledMatchday{
		ID:          uuid.New(),
		CohortID:    record.CohortID,
		Matchday:    record.Matchday + 1,
		ScheduledAt: s.nextMatchdayAt(now),
	}

	err = s.store.ExecuteMatchday(ctx, record, pairings, next, now)
	if errors.Is(err, store.ErrAlreadyExecuted) {
		// Someone else won the compare-and-set; nothing was applied twice.
		matchdayConflicts.Inc()
		s.logger.Infow("Matchday already executed elsewhere",
			"record", record.ID,
			"cohort", record.CohortID,
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("execute matchday %d for cohort %s: %w", record.Matchday, record.CohortID, err)
	}

	matchdaysExecuted.Inc()
	s.logger.Infow("Matchday executed",
		"record", record.ID,
		"cohort", record.CohortID,
		"matchday", record.Matchday,
		"nextMatchday", next.Matchday,
		"nextAt", next.ScheduledAt,
	)
	return nil
}

func (s *Scheduler) acquireLock(ctx context.Context, record models.ScheduledMatchday) bool {
	if s.locks == nil {
		return true
	}
	key := "scheduler:matchday:" + record.ID.String()
	ok, err := s.locks.SetNX(ctx, key, 1, s.config.LockTTL).Result()
	if err != nil {
		// Redis down degrades to the SQL compare-and-set alone.
		s.logger.Warnw("Scheduler lock unavailable, relying on conditional update",
			"record", record.ID,
			"error", err,
		)
		return true
	}
	return ok
}

// ScheduleNextMatchday persists the intent to advance a cohort at an
// arbitrary future time, used for the initial setup of a new cohort.
func (s *Scheduler) ScheduleNextMatchday(ctx context.Context, cohortID uuid.UUID, matchday int, at time.Time) (models.ScheduledMatchday, error) {
	record := models.ScheduledMatchday{
		ID:          uuid.New(),
		CohortID:    cohortID,
		Matchday:    matchday,
		ScheduledAt: at,
	}
	if err := s.store.CreateScheduled(ctx, record); err != nil {
		return models.ScheduledMatchday{}, fmt.Errorf("create scheduled matchday: %w", err)
	}
	s.logger.Infow("Matchday scheduled",
		"record", record.ID,
		"cohort", cohortID,
		"matchday", matchday,
		"at", at,
	)
	return record, nil
}

// nextTrigger returns the next occurrence of the configured time-of-day
// strictly after the given instant.
func (s *Scheduler) nextTrigger(after time.Time) time.Time {
	t := after.In(s.config.Location)
	trigger := time.Date(t.Year(), t.Month(), t.Day(), s.config.TriggerHour, s.config.TriggerMinute, 0, 0, s.config.Location)
	if !trigger.After(t) {
		trigger = trigger.AddDate(0, 0, 1)
	}
	return trigger
}

// nextMatchdayAt is now plus the matchday interval, normalized to the
// configured time-of-day.
func (s *Scheduler) nextMatchdayAt(now time.Time) time.Time {
	t := now.In(s.config.Location).AddDate(0, 0, s.config.IntervalDays)
	return time.Date(t.Year(), t.Month(), t.Day(), s.config.TriggerHour, s.config.TriggerMinute, 0, 0, s.config.Location)
}
