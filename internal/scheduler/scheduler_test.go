package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cardkick/league-engine/internal/logic"
	"github.com/cardkick/league-engine/internal/models"
	"github.com/cardkick/league-engine/internal/store"
)

type execution struct {
	record   models.ScheduledMatchday
	pairings []logic.Pairing
	next     models.ScheduledMatchday
}

type fakeStore struct {
	due        []models.ScheduledMatchday
	between    []models.ScheduledMatchday
	stale      []models.ScheduledMatchday
	teams      map[uuid.UUID][]models.Team
	execErr    error
	executions []execution
	created    []models.ScheduledMatchday

	betweenFrom, betweenTo time.Time
}

func (f *fakeStore) DuePending(ctx context.Context, before time.Time) ([]models.ScheduledMatchday, error) {
	return f.due, nil
}

func (f *fakeStore) PendingBetween(ctx context.Context, from, to time.Time) ([]models.ScheduledMatchday, error) {
	f.betweenFrom, f.betweenTo = from, to
	return f.between, nil
}

func (f *fakeStore) StalePending(ctx context.Context, before time.Time) ([]models.ScheduledMatchday, error) {
	return f.stale, nil
}

func (f *fakeStore) CohortTeams(ctx context.Context, cohortID uuid.UUID) ([]models.Team, error) {
	return f.teams[cohortID], nil
}

func (f *fakeStore) ExecuteMatchday(ctx context.Context, record models.ScheduledMatchday, pairings []logic.Pairing, next models.ScheduledMatchday, now time.Time) error {
	if f.execErr != nil {
		return f.execErr
	}
	f.executions = append(f.executions, execution{record: record, pairings: pairings, next: next})
	return nil
}

func (f *fakeStore) CreateScheduled(ctx context.Context, record models.ScheduledMatchday) error {
	f.created = append(f.created, record)
	return nil
}

type fakeLock struct {
	granted bool
	keys    []string
}

func (f *fakeLock) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.keys = append(f.keys, key)
	return redis.NewBoolResult(f.granted, nil)
}

func cohortTeams(cohortID uuid.UUID, n int) []models.Team {
	teams := make([]models.Team, n)
	for i := range teams {
		teams[i] = models.Team{
			ID:           uuid.New(),
			CohortID:     cohortID,
			CompetitorID: uuid.New(),
			Name:         fmt.Sprintf("team-%d", i),
		}
	}
	return teams
}

func testConfig() Config {
	return Config{
		TriggerHour:   9,
		TriggerMinute: 0,
		Location:      time.UTC,
		IntervalDays:  1,
	}
}

func TestRunDueExecutesRecord(t *testing.T) {
	cohort := uuid.New()
	record := models.ScheduledMatchday{
		ID:          uuid.New(),
		CohortID:    cohort,
		Matchday:    3,
		ScheduledAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	st := &fakeStore{
		due:   []models.ScheduledMatchday{record},
		teams: map[uuid.UUID][]models.Team{cohort: cohortTeams(cohort, 4)},
	}
	s := New(st, nil, testConfig(), zap.NewNop())

	now := time.Date(2024, 5, 1, 9, 0, 5, 0, time.UTC)
	if err := s.RunDue(context.Background(), now); err != nil {
		t.Fatalf("RunDue() error = %v", err)
	}

	if len(st.executions) != 1 {
		t.Fatalf("executed %d records, want 1", len(st.executions))
	}
	exec := st.executions[0]
	if exec.record.ID != record.ID {
		t.Error("executed the wrong record")
	}
	if len(exec.pairings) != 6 {
		t.Errorf("generated %d pairings, want 6", len(exec.pairings))
	}
	if exec.next.Matchday != 4 {
		t.Errorf("next matchday = %d, want 4", exec.next.Matchday)
	}
	if exec.next.CohortID != cohort {
		t.Error("next record belongs to the wrong cohort")
	}
	want := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	if !exec.next.ScheduledAt.Equal(want) {
		t.Errorf("next scheduled at %v, want %v (interval day, normalized time-of-day)", exec.next.ScheduledAt, want)
	}
}

func TestRunDueSkipsIncompleteCohort(t *testing.T) {
	cohort := uuid.New()
	st := &fakeStore{
		due: []models.ScheduledMatchday{{
			ID:       uuid.New(),
			CohortID: cohort,
			Matchday: 1,
		}},
		teams: map[uuid.UUID][]models.Team{cohort: cohortTeams(cohort, 3)},
	}
	s := New(st, nil, testConfig(), zap.NewNop())

	if err := s.RunDue(context.Background(), time.Now()); err != nil {
		t.Fatalf("RunDue() error = %v, skipping must be non-fatal", err)
	}
	if len(st.executions) != 0 {
		t.Error("incomplete cohort must not be executed")
	}
}

func TestRunDueAlreadyExecutedIsNoOp(t *testing.T) {
	cohort := uuid.New()
	st := &fakeStore{
		due: []models.ScheduledMatchday{{
			ID:       uuid.New(),
			CohortID: cohort,
			Matchday: 2,
		}},
		teams:   map[uuid.UUID][]models.Team{cohort: cohortTeams(cohort, 4)},
		execErr: store.ErrAlreadyExecuted,
	}
	s := New(st, nil, testConfig(), zap.NewNop())

	if err := s.RunDue(context.Background(), time.Now()); err != nil {
		t.Fatalf("RunDue() error = %v, lost compare-and-set must be graceful", err)
	}
}

func TestRunDueLockDenied(t *testing.T) {
	cohort := uuid.New()
	st := &fakeStore{
		due: []models.ScheduledMatchday{{
			ID:       uuid.New(),
			CohortID: cohort,
			Matchday: 2,
		}},
		teams: map[uuid.UUID][]models.Team{cohort: cohortTeams(cohort, 4)},
	}
	locks := &fakeLock{granted: false}
	s := New(st, locks, testConfig(), zap.NewNop())

	if err := s.RunDue(context.Background(), time.Now()); err != nil {
		t.Fatalf("RunDue() error = %v", err)
	}
	if len(st.executions) != 0 {
		t.Error("record must not execute when another instance holds the lock")
	}
	if len(locks.keys) != 1 {
		t.Errorf("lock attempted %d times, want 1", len(locks.keys))
	}
}

func TestRunRecoveryWindow(t *testing.T) {
	cohort := uuid.New()
	recoverable := models.ScheduledMatchday{
		ID:       uuid.New(),
		CohortID: cohort,
		Matchday: 5,
	}
	st := &fakeStore{
		between: []models.ScheduledMatchday{recoverable},
		stale:   []models.ScheduledMatchday{{ID: uuid.New(), CohortID: uuid.New(), Matchday: 1}},
		teams:   map[uuid.UUID][]models.Team{cohort: cohortTeams(cohort, 4)},
	}
	s := New(st, nil, testConfig(), zap.NewNop())

	now := time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)
	if err := s.RunRecovery(context.Background(), now); err != nil {
		t.Fatalf("RunRecovery() error = %v", err)
	}

	if !st.betweenFrom.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("recovery window start = %v, want now-24h", st.betweenFrom)
	}
	if !st.betweenTo.Equal(now.Add(-time.Hour)) {
		t.Errorf("recovery window end = %v, want now-1h", st.betweenTo)
	}
	if len(st.executions) != 1 || st.executions[0].record.ID != recoverable.ID {
		t.Fatal("recoverable record was not executed")
	}
	// The stale record stays pending for manual handling.
	if st.executions[0].record.Matchday == 1 {
		t.Error("stale record must not be auto-recovered")
	}
}

func TestScheduleNextMatchday(t *testing.T) {
	st := &fakeStore{}
	s := New(st, nil, testConfig(), zap.NewNop())

	cohort := uuid.New()
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	record, err := s.ScheduleNextMatchday(context.Background(), cohort, 1, at)
	if err != nil {
		t.Fatalf("ScheduleNextMatchday() error = %v", err)
	}
	if len(st.created) != 1 {
		t.Fatalf("created %d records, want 1", len(st.created))
	}
	if record.CohortID != cohort || record.Matchday != 1 || !record.ScheduledAt.Equal(at) {
		t.Errorf("created record %+v does not match request", record)
	}
	if record.Executed {
		t.Error("new record must start pending")
	}
}

func TestNextTrigger(t *testing.T) {
	s := New(&fakeStore{}, nil, testConfig(), zap.NewNop())

	tests := []struct {
		name  string
		after time.Time
		want  time.Time
	}{
		{
			"BeforeTriggerSameDay",
			time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC),
			time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			"AfterTriggerNextDay",
			time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
			time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.nextTrigger(tt.after); !got.Equal(tt.want) {
				t.Errorf("nextTrigger(%v) = %v, want %v", tt.after, got, tt.want)
			}
		})
	}
}
