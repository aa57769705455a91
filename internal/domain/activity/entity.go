// Package activity contains the daily activity ledger: one additive record
// per (user, calendar date) accumulating study hours and completed items.
// This is a pure domain layer with zero external dependencies.
package activity

import (
	"math"
	"time"

	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// Delta is an increment applied to a ledger record.
// Omitted fields are zero; negative values are rejected so accumulators
// never decrease.
type Delta struct {
	HoursSpent           float64
	LessonsCompleted     int
	AssignmentsCompleted int
	ExamsTaken           int
}

// Validate checks that every component is a finite, non-negative number.
func (d Delta) Validate() error {
	if math.IsNaN(d.HoursSpent) || math.IsInf(d.HoursSpent, 0) {
		return shared.ErrNegativeDelta
	}
	if d.HoursSpent < 0 || d.LessonsCompleted < 0 || d.AssignmentsCompleted < 0 || d.ExamsTaken < 0 {
		return shared.ErrNegativeDelta
	}
	return nil
}

// IsZero returns true if the delta changes nothing.
func (d Delta) IsZero() bool {
	return d.HoursSpent == 0 && d.LessonsCompleted == 0 &&
		d.AssignmentsCompleted == 0 && d.ExamsTaken == 0
}

// Record is the ledger row for one user on one calendar date.
type Record struct {
	UserID               shared.UserID
	Date                 time.Time // midnight UTC
	HoursSpent           float64
	LessonsCompleted     int
	AssignmentsCompleted int
	ExamsTaken           int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewRecord creates an empty record for the given user and date.
func NewRecord(userID shared.UserID, date time.Time, now time.Time) (*Record, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	if date.IsZero() {
		return nil, shared.ErrInvalidDate
	}
	u := date.UTC()
	return &Record{
		UserID:    userID,
		Date:      time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Apply adds the delta to the record's accumulators.
func (r *Record) Apply(d Delta, now time.Time) {
	r.HoursSpent += d.HoursSpent
	r.LessonsCompleted += d.LessonsCompleted
	r.AssignmentsCompleted += d.AssignmentsCompleted
	r.ExamsTaken += d.ExamsTaken
	r.UpdatedAt = now
}

// Qualifies reports whether the day counts toward a study streak.
func (r *Record) Qualifies() bool {
	return r.HoursSpent > 0 || r.LessonsCompleted > 0
}

// Totals are a user's ledger sums across all dates.
type Totals struct {
	HoursSpent           float64
	LessonsCompleted     int
	AssignmentsCompleted int
	ExamsTaken           int
}

// Add accumulates a record into the totals.
func (t *Totals) Add(r *Record) {
	t.HoursSpent += r.HoursSpent
	t.LessonsCompleted += r.LessonsCompleted
	t.AssignmentsCompleted += r.AssignmentsCompleted
	t.ExamsTaken += r.ExamsTaken
}
