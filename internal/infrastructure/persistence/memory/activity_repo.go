package memory

import (
	"context"
	"sort"
	"time"

	"github.com/alem-hub/study-progress-core/internal/domain/activity"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
	"github.com/alem-hub/study-progress-core/pkg/timeutil"
)

// ActivityRepository implements activity.Repository.
type ActivityRepository struct {
	s *Store
}

var _ activity.Repository = (*ActivityRepository)(nil)

// Upsert implements activity.Repository.
func (r *ActivityRepository) Upsert(_ context.Context, userID shared.UserID, date time.Time, delta activity.Delta) (*activity.Record, error) {
	if err := delta.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	key := ledgerKey{userID: userID, date: timeutil.StartOfDay(date)}
	rec, ok := r.s.ledger[key]
	if !ok {
		var err error
		rec, err = activity.NewRecord(userID, key.date, now)
		if err != nil {
			return nil, err
		}
		r.s.ledger[key] = rec
	}
	rec.Apply(delta, now)

	cp := *rec
	return &cp, nil
}

// Get implements activity.Repository.
func (r *ActivityRepository) Get(_ context.Context, userID shared.UserID, date time.Time) (*activity.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.ledger[ledgerKey{userID: userID, date: timeutil.StartOfDay(date)}]
	if !ok {
		return nil, shared.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

// ListRange implements activity.Repository.
func (r *ActivityRepository) ListRange(_ context.Context, userID shared.UserID, from, to time.Time) ([]*activity.Record, error) {
	from, to = timeutil.StartOfDay(from), timeutil.StartOfDay(to)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*activity.Record
	for key, rec := range r.s.ledger {
		if key.userID != userID || key.date.Before(from) || key.date.After(to) {
			continue
		}
		cp := *rec
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

// Totals implements activity.Repository.
func (r *ActivityRepository) Totals(_ context.Context, userID shared.UserID) (activity.Totals, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var totals activity.Totals
	for key, rec := range r.s.ledger {
		if key.userID == userID {
			totals.Add(rec)
		}
	}
	return totals, nil
}

// QualifyingDates implements activity.Repository.
func (r *ActivityRepository) QualifyingDates(_ context.Context, userID shared.UserID) ([]time.Time, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var dates []time.Time
	for key, rec := range r.s.ledger {
		if key.userID == userID && rec.Qualifies() {
			dates = append(dates, key.date)
		}
	}
	sortDatesDesc(dates)
	return dates, nil
}
