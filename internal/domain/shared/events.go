package shared

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened inside the progression engine. Events are ephemeral: they drive
// UI notifications and cache invalidation, never durable state.
const (
	// Progress events
	EventExperienceGained EventType = "progress.experience_gained"
	EventLessonCompleted  EventType = "progress.lesson_completed"
	EventLessonVisited    EventType = "progress.lesson_visited"
	EventBlockFinished    EventType = "progress.block_finished"

	// Quiz events
	EventTestPassed EventType = "quiz.test_passed"
	EventTestFailed EventType = "quiz.test_failed"

	// Enrollment events
	EventCourseEnrolled  EventType = "enrollment.course_enrolled"
	EventCoursePurchased EventType = "enrollment.course_purchased"

	// Wallet events
	EventWalletCredited EventType = "wallet.credited"
	EventWalletDebited  EventType = "wallet.debited"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced the event.
	AggregateID() string
}

// EventHandler processes a single domain event.
type EventHandler func(event Event) error

// EventPublisher delivers domain events to subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// BaseEvent provides common event fields; concrete events embed it.
type BaseEvent struct {
	ID         string
	Type       EventType
	Aggregate  string
	TelegramID TelegramID
	Timestamp  time.Time
}

// NewBaseEvent creates the common part of a domain event.
func NewBaseEvent(t EventType, aggregate string, user TelegramID) BaseEvent {
	return BaseEvent{
		ID:         uuid.NewString(),
		Type:       t,
		Aggregate:  aggregate,
		TelegramID: user,
		Timestamp:  time.Now().UTC(),
	}
}

func (e BaseEvent) EventType() EventType  { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.Aggregate }

// ExperienceGainedEvent fires when a lesson completion grants XP.
// The UI consumes it as an auto-clearing toast; nothing durable depends on it.
type ExperienceGainedEvent struct {
	BaseEvent
	LessonID string
	Amount   int
}

// LessonVisitedEvent fires after a best-effort visit record succeeds.
type LessonVisitedEvent struct {
	BaseEvent
	LessonID string
}

// LessonCompletedEvent fires after the completion write succeeds.
type LessonCompletedEvent struct {
	BaseEvent
	LessonID string
	BlockID  string
}

// BlockFinishedEvent fires after the idempotent block-finish write.
type BlockFinishedEvent struct {
	BaseEvent
	BlockID string
}

// TestResultEvent fires when a quiz result submission succeeds.
type TestResultEvent struct {
	BaseEvent
	TestID  string
	BlockID string
	Passed  bool
	Percent int
}

// CourseEnrolledEvent fires after a subscribe (free or purchased) succeeds.
type CourseEnrolledEvent struct {
	BaseEvent
	CourseID string
	// PricePaid is zero for free subscriptions.
	PricePaid int
}

// WalletTransactionEvent fires after a ledger write succeeds.
type WalletTransactionEvent struct {
	BaseEvent
	// Credit is true for top-ups, false for purchase debits.
	Credit bool
	Amount int
}
