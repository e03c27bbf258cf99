package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/USamirjon/miniapp/internal/domain/progress"
	"github.com/USamirjon/miniapp/internal/domain/quiz"
	"github.com/USamirjon/miniapp/internal/domain/shared"
	rediscache "github.com/USamirjon/miniapp/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT TEST RESULT COMMAND
// Records a finished quiz run with the platform. The submit-once guarantee
// lives in the quiz runner: callers hand over a Result obtained from
// TakeSubmission, which yields at most once per run. A passing result
// triggers the block evaluation with the test requirement already satisfied,
// so an eventually consistent status re-read cannot undo the pass.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitTestResultCommand contains the data to submit a quiz result.
type SubmitTestResultCommand struct {
	// User is the acting user.
	User shared.TelegramID

	// CourseID identifies the owning course (forwarded to block evaluation).
	CourseID string

	// Result is the outcome taken from the quiz runner.
	Result quiz.Result

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SubmitTestResultCommand) Validate() error {
	if c.Result.TestID == "" {
		return shared.NewDomainError("quiz", "Submit", shared.ErrInvalidID, "result has no test ID")
	}
	if c.Result.Total <= 0 {
		return shared.NewDomainError("quiz", "Submit", shared.ErrInvalidInput, "total must be a positive integer")
	}
	if c.Result.Score < 0 || c.Result.Score > c.Result.Total {
		return shared.NewDomainError("quiz", "Submit", shared.ErrInvalidInput, "score out of range")
	}
	if c.Result.Percent < 0 || c.Result.Percent > 100 {
		return shared.NewDomainError("quiz", "Submit", shared.ErrInvalidInput, "percent out of range")
	}
	return nil
}

// SubmitTestResultResult contains the outcome of the submission.
type SubmitTestResultResult struct {
	// Passed mirrors the submitted verdict.
	Passed bool

	// Percent mirrors the submitted percentage.
	Percent int

	// BlockFinished reports whether the pass finished the block.
	BlockFinished bool
}

// SubmitTestResultHandler handles the SubmitTestResultCommand.
type SubmitTestResultHandler struct {
	progress progress.Service
	evaluate *EvaluateBlockHandler
	events   shared.EventPublisher
	cache    Cache
	logger   *slog.Logger
}

// NewSubmitTestResultHandler creates a new SubmitTestResultHandler.
func NewSubmitTestResultHandler(
	progressService progress.Service,
	evaluate *EvaluateBlockHandler,
	events shared.EventPublisher,
	cache Cache,
	logger *slog.Logger,
) *SubmitTestResultHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitTestResultHandler{
		progress: progressService,
		evaluate: evaluate,
		events:   events,
		cache:    cache,
		logger:   logger,
	}
}

// Handle executes the submit test result command.
func (h *SubmitTestResultHandler) Handle(ctx context.Context, cmd SubmitTestResultCommand) (*SubmitTestResultResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if cmd.User.IsAnonymous() {
		return nil, shared.ErrAnonymousProgress
	}

	r := cmd.Result
	if err := h.progress.SubmitTestResult(ctx, cmd.User, r.TestID, r.Passed, r.Percent); err != nil {
		return nil, fmt.Errorf("submit test result %s: %w", r.TestID, err)
	}

	eventType := shared.EventTestFailed
	if r.Passed {
		eventType = shared.EventTestPassed
	}
	if h.events != nil {
		_ = h.events.Publish(shared.TestResultEvent{
			BaseEvent: shared.NewBaseEvent(eventType, r.TestID, cmd.User),
			TestID:    r.TestID,
			BlockID:   r.BlockID,
			Passed:    r.Passed,
			Percent:   r.Percent,
		})
	}

	keys := []string{rediscache.KeyTestStatus(cmd.User, r.TestID)}
	if r.BlockID != "" {
		keys = append(keys, rediscache.KeyBlockAggregate(cmd.User, r.BlockID))
	}
	invalidate(ctx, h.cache, h.logger, keys...)

	result := &SubmitTestResultResult{Passed: r.Passed, Percent: r.Percent}

	if r.Passed && r.BlockID != "" {
		evalResult, err := h.evaluate.Handle(ctx, EvaluateBlockCommand{
			User:          cmd.User,
			CourseID:      cmd.CourseID,
			BlockID:       r.BlockID,
			TestSatisfied: true,
			CorrelationID: cmd.CorrelationID,
		})
		if err != nil {
			h.logger.Warn("block evaluation failed after test pass",
				"telegram_id", cmd.User,
				"block_id", r.BlockID,
				"correlation_id", cmd.CorrelationID,
				"error", err,
			)
			return result, nil
		}
		result.BlockFinished = evalResult.Finished
	}

	return result, nil
}
