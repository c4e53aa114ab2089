package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduledMatchday is the persisted intent to advance a cohort's calendar
// at a specific time. The executed flag is monotonic: false to true, once.
// Exactly one unexecuted record should exist per active cohort.
type ScheduledMatchday struct {
	ID          uuid.UUID  `json:"id"`
	CohortID    uuid.UUID  `json:"cohort_id"`
	Matchday    int        `json:"matchday"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Executed    bool       `json:"executed"`
	ExecutedAt  *time.Time `json:"executed_at,omitempty"`
}
