package command

import (
	"context"
	"log/slog"

	"github.com/USamirjon/miniapp/internal/domain/progress"
	"github.com/USamirjon/miniapp/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD VISIT COMMAND
// Best-effort lesson visit analytics. Failures are logged and swallowed:
// a lost visit record must never disturb the reading experience.
// ══════════════════════════════════════════════════════════════════════════════

// RecordVisitCommand contains the data to record a lesson visit.
type RecordVisitCommand struct {
	// User is the acting user (may be anonymous).
	User shared.TelegramID

	// LessonID is the visited lesson.
	LessonID string
}

// RecordVisitHandler handles the RecordVisitCommand.
type RecordVisitHandler struct {
	progress progress.Writer
	events   shared.EventPublisher
	logger   *slog.Logger
}

// NewRecordVisitHandler creates a new RecordVisitHandler.
func NewRecordVisitHandler(progressWriter progress.Writer, events shared.EventPublisher, logger *slog.Logger) *RecordVisitHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordVisitHandler{progress: progressWriter, events: events, logger: logger}
}

// Handle records the visit. Never returns an error.
func (h *RecordVisitHandler) Handle(ctx context.Context, cmd RecordVisitCommand) {
	if cmd.LessonID == "" {
		return
	}

	if err := h.progress.RecordVisit(ctx, cmd.LessonID); err != nil {
		h.logger.Debug("visit record failed",
			"lesson_id", cmd.LessonID, "error", err)
		return
	}

	if h.events != nil {
		_ = h.events.Publish(shared.LessonVisitedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventLessonVisited, cmd.LessonID, cmd.User),
			LessonID:  cmd.LessonID,
		})
	}
}
