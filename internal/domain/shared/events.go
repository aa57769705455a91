// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"context"
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types.
const (
	// Ledger events
	EventActivityLogged EventType = "activity.logged"

	// Exam events
	EventAttemptStarted   EventType = "exam.attempt_started"
	EventAttemptCompleted EventType = "exam.attempt_completed"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Ledger Events
// ═══════════════════════════════════════════════════════════════════════════

// ActivityLoggedEvent is emitted after a delta has been added to the ledger.
// The aggregate is the user; achievement projection listens for it.
type ActivityLoggedEvent struct {
	BaseEvent
	UserID               string    `json:"user_id"`
	Date                 time.Time `json:"date"`
	HoursSpent           float64   `json:"hours_spent"`
	LessonsCompleted     int       `json:"lessons_completed"`
	AssignmentsCompleted int       `json:"assignments_completed"`
	ExamsTaken           int       `json:"exams_taken"`
}

// NewActivityLoggedEvent creates a new ActivityLoggedEvent.
func NewActivityLoggedEvent(userID string, date time.Time, hours float64, lessons, assignments, exams int, at time.Time) *ActivityLoggedEvent {
	return &ActivityLoggedEvent{
		BaseEvent:            NewBaseEvent(EventActivityLogged, userID, at),
		UserID:               userID,
		Date:                 date,
		HoursSpent:           hours,
		LessonsCompleted:     lessons,
		AssignmentsCompleted: assignments,
		ExamsTaken:           exams,
	}
}

// Payload implements Event interface.
func (e *ActivityLoggedEvent) Payload() map[string]interface{} {
	return toMap(e)
}

// ═══════════════════════════════════════════════════════════════════════════
// Exam Events
// ═══════════════════════════════════════════════════════════════════════════

// AttemptStartedEvent is emitted when a student opens a new exam attempt.
type AttemptStartedEvent struct {
	BaseEvent
	AttemptID string `json:"attempt_id"`
	ExamID    string `json:"exam_id"`
	StudentID string `json:"student_id"`
}

// NewAttemptStartedEvent creates a new AttemptStartedEvent.
func NewAttemptStartedEvent(attemptID, examID, studentID string, at time.Time) *AttemptStartedEvent {
	return &AttemptStartedEvent{
		BaseEvent: NewBaseEvent(EventAttemptStarted, attemptID, at),
		AttemptID: attemptID,
		ExamID:    examID,
		StudentID: studentID,
	}
}

// Payload implements Event interface.
func (e *AttemptStartedEvent) Payload() map[string]interface{} {
	return toMap(e)
}

// AttemptCompletedEvent is emitted once an attempt has been scored.
type AttemptCompletedEvent struct {
	BaseEvent
	AttemptID   string  `json:"attempt_id"`
	ExamID      string  `json:"exam_id"`
	StudentID   string  `json:"student_id"`
	Score       float64 `json:"score"`
	TotalPoints int     `json:"total_points"`
}

// NewAttemptCompletedEvent creates a new AttemptCompletedEvent.
func NewAttemptCompletedEvent(attemptID, examID, studentID string, score float64, total int, at time.Time) *AttemptCompletedEvent {
	return &AttemptCompletedEvent{
		BaseEvent:   NewBaseEvent(EventAttemptCompleted, attemptID, at),
		AttemptID:   attemptID,
		ExamID:      examID,
		StudentID:   studentID,
		Score:       score,
		TotalPoints: total,
	}
}

// Payload implements Event interface.
func (e *AttemptCompletedEvent) Payload() map[string]interface{} {
	return toMap(e)
}

// IsPerfect returns true if every answered point was earned.
func (e *AttemptCompletedEvent) IsPerfect() bool {
	return e.TotalPoints > 0 && e.Score == float64(e.TotalPoints)
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted the first time an unlock row is written.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID          string `json:"user_id"`
	AchievementType string `json:"achievement_type"`
	Title           string `json:"title"`
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, achievementType, title string, at time.Time) *AchievementUnlockedEvent {
	return &AchievementUnlockedEvent{
		BaseEvent:       NewBaseEvent(EventAchievementUnlocked, userID, at),
		UserID:          userID,
		AchievementType: achievementType,
		Title:           title,
	}
}

// Payload implements Event interface.
func (e *AchievementUnlockedEvent) Payload() map[string]interface{} {
	return toMap(e)
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Infrastructure Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(ctx context.Context, event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(ctx context.Context, event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// toMap converts a struct to a map using JSON marshaling.
func toMap(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}
