package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/study-progress-core/internal/domain/activity"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
	"github.com/alem-hub/study-progress-core/pkg/timeutil"
)

// ActivityRepository implements activity.Repository for PostgreSQL.
type ActivityRepository struct {
	conn *Connection
}

var _ activity.Repository = (*ActivityRepository)(nil)

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(conn *Connection) *ActivityRepository {
	return &ActivityRepository{conn: conn}
}

const recordColumns = `user_id, activity_date, hours_spent, lessons_completed,
	assignments_completed, exams_taken, created_at, updated_at`

// Upsert adds delta to the day's record in a single statement, so
// concurrent writers on the same key serialise on the row lock.
func (r *ActivityRepository) Upsert(ctx context.Context, userID shared.UserID, date time.Time, delta activity.Delta) (*activity.Record, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	if err := delta.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO activity_records (
			user_id, activity_date, hours_spent, lessons_completed,
			assignments_completed, exams_taken, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id, activity_date) DO UPDATE SET
			hours_spent = activity_records.hours_spent + EXCLUDED.hours_spent,
			lessons_completed = activity_records.lessons_completed + EXCLUDED.lessons_completed,
			assignments_completed = activity_records.assignments_completed + EXCLUDED.assignments_completed,
			exams_taken = activity_records.exams_taken + EXCLUDED.exams_taken,
			updated_at = NOW()
		RETURNING ` + recordColumns

	row := r.conn.QueryRow(ctx, query,
		userID.String(),
		timeutil.StartOfDay(date),
		delta.HoursSpent,
		delta.LessonsCompleted,
		delta.AssignmentsCompleted,
		delta.ExamsTaken,
	)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert activity: %w", err)
	}
	return rec, nil
}

// Get returns the record for one day.
func (r *ActivityRepository) Get(ctx context.Context, userID shared.UserID, date time.Time) (*activity.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM activity_records WHERE user_id = $1 AND activity_date = $2`

	rec, err := scanRecord(r.conn.QueryRow(ctx, query, userID.String(), timeutil.StartOfDay(date)))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return rec, nil
}

// ListRange returns records between from and to inclusive, newest first.
func (r *ActivityRepository) ListRange(ctx context.Context, userID shared.UserID, from, to time.Time) ([]*activity.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM activity_records
		WHERE user_id = $1 AND activity_date BETWEEN $2 AND $3
		ORDER BY activity_date DESC
	`

	rows, err := r.conn.Query(ctx, query, userID.String(), timeutil.StartOfDay(from), timeutil.StartOfDay(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	var result []*activity.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Totals sums the user's ledger.
func (r *ActivityRepository) Totals(ctx context.Context, userID shared.UserID) (activity.Totals, error) {
	query := `
		SELECT
			COALESCE(SUM(hours_spent), 0),
			COALESCE(SUM(lessons_completed), 0),
			COALESCE(SUM(assignments_completed), 0),
			COALESCE(SUM(exams_taken), 0)
		FROM activity_records
		WHERE user_id = $1
	`

	var t activity.Totals
	err := r.conn.QueryRow(ctx, query, userID.String()).Scan(
		&t.HoursSpent, &t.LessonsCompleted, &t.AssignmentsCompleted, &t.ExamsTaken,
	)
	if err != nil {
		return activity.Totals{}, fmt.Errorf("failed to sum activity: %w", err)
	}
	return t, nil
}

// QualifyingDates returns the streak-qualifying dates, newest first.
func (r *ActivityRepository) QualifyingDates(ctx context.Context, userID shared.UserID) ([]time.Time, error) {
	query := `
		SELECT activity_date
		FROM activity_records
		WHERE user_id = $1 AND (hours_spent > 0 OR lessons_completed > 0)
		ORDER BY activity_date DESC
	`

	rows, err := r.conn.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query qualifying dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		dates = append(dates, timeutil.StartOfDay(d))
	}
	return dates, rows.Err()
}

func scanRecord(row pgx.Row) (*activity.Record, error) {
	var (
		rec    activity.Record
		userID string
	)
	err := row.Scan(
		&userID, &rec.Date, &rec.HoursSpent, &rec.LessonsCompleted,
		&rec.AssignmentsCompleted, &rec.ExamsTaken, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.UserID = shared.UserID(userID)
	rec.Date = timeutil.StartOfDay(rec.Date)
	return &rec, nil
}
