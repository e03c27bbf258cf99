// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/USamirjon/miniapp/internal/domain/course"
	"github.com/USamirjon/miniapp/internal/domain/progress"
	"github.com/USamirjon/miniapp/internal/domain/shared"
	rediscache "github.com/USamirjon/miniapp/internal/infrastructure/persistence/redis"
	"golang.org/x/sync/errgroup"
)

// Cache is the invalidation side of the transient cache. A nil Cache turns
// every invalidation into a no-op.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// invalidate drops the given cache keys, logging instead of failing: a stale
// cache entry expires on its own TTL, the write that triggered it stands.
func invalidate(ctx context.Context, cache Cache, logger *slog.Logger, keys ...string) {
	if cache == nil || len(keys) == 0 {
		return
	}
	if err := cache.Invalidate(ctx, keys...); err != nil {
		logger.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATE BLOCK COMPLETION COMMAND
// Re-derives the block completion condition from the platform and issues the
// idempotent block-finish write when it holds. The platform is re-queried
// every time: local state is never trusted for this decision, because another
// device may have advanced the same account in the meantime.
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateBlockCommand contains the data to re-evaluate a block.
type EvaluateBlockCommand struct {
	// User is the acting user.
	User shared.TelegramID

	// CourseID identifies the owning course (used to refresh the unlock
	// state of the following block; optional).
	CourseID string

	// BlockID is the block to evaluate.
	BlockID string

	// TestSatisfied marks the test requirement as already met because a
	// passing result was recorded a moment ago in this same request and a
	// status re-read could still miss it. Only the result-submission path
	// sets it; it is never taken from client input.
	TestSatisfied bool

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c EvaluateBlockCommand) Validate() error {
	if c.BlockID == "" {
		return shared.ErrInvalidBlockID
	}
	return nil
}

// EvaluateBlockResult contains the outcome of the evaluation.
type EvaluateBlockResult struct {
	// Complete reports whether the completion condition held.
	Complete bool

	// Finished reports whether the block-finish write was issued.
	Finished bool
}

// EvaluateBlockHandler handles the EvaluateBlockCommand.
type EvaluateBlockHandler struct {
	catalog  course.Catalog
	progress progress.Service
	events   shared.EventPublisher
	cache    Cache
	logger   *slog.Logger
}

// NewEvaluateBlockHandler creates a new EvaluateBlockHandler.
func NewEvaluateBlockHandler(
	catalog course.Catalog,
	progressService progress.Service,
	events shared.EventPublisher,
	cache Cache,
	logger *slog.Logger,
) *EvaluateBlockHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluateBlockHandler{
		catalog:  catalog,
		progress: progressService,
		events:   events,
		cache:    cache,
		logger:   logger,
	}
}

// Handle executes the evaluation. Safe to call redundantly: the finish write
// is idempotent on the platform side and the condition is re-derived from
// fresh reads on every call.
func (h *EvaluateBlockHandler) Handle(ctx context.Context, cmd EvaluateBlockCommand) (*EvaluateBlockResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if cmd.User.IsAnonymous() {
		return nil, shared.ErrAnonymousProgress
	}

	lessons, err := h.catalog.Lessons(ctx, cmd.BlockID)
	if err != nil {
		return nil, fmt.Errorf("evaluate block %s: %w", cmd.BlockID, err)
	}

	completed := h.freshLessonStatuses(ctx, cmd.User, lessons)

	hasTest, testDone := false, false
	if !cmd.TestSatisfied {
		hasTest, testDone = h.testStatus(ctx, cmd.User, cmd.BlockID)
	}

	result := &EvaluateBlockResult{
		Complete: progress.BlockComplete(completed, hasTest, testDone),
	}
	if !result.Complete {
		return result, nil
	}

	if err := h.progress.FinishBlock(ctx, cmd.User, cmd.BlockID); err != nil {
		return nil, fmt.Errorf("finish block %s: %w", cmd.BlockID, err)
	}
	result.Finished = true

	event := shared.BlockFinishedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventBlockFinished, cmd.BlockID, cmd.User),
		BlockID:   cmd.BlockID,
	}
	if h.events != nil {
		_ = h.events.Publish(event)
	}

	keys := []string{rediscache.KeyBlockAggregate(cmd.User, cmd.BlockID)}
	if next := h.nextBlockID(ctx, cmd.CourseID, cmd.BlockID); next != "" {
		keys = append(keys, rediscache.KeyBlockAggregate(cmd.User, next))
	}
	invalidate(ctx, h.cache, h.logger, keys...)

	h.logger.Info("block finished",
		"telegram_id", cmd.User,
		"block_id", cmd.BlockID,
		"correlation_id", cmd.CorrelationID,
	)
	return result, nil
}

// freshLessonStatuses fans out per-lesson status reads, bypassing the cache.
// A failed read degrades to false: the block stays unfinished rather than
// finishing on a guess.
func (h *EvaluateBlockHandler) freshLessonStatuses(ctx context.Context, user shared.TelegramID, lessons []course.Lesson) []bool {
	completed := make([]bool, len(lessons))
	if len(lessons) == 0 {
		return completed
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, l := range lessons {
		i, l := i, l
		g.Go(func() error {
			done, err := h.progress.LessonComplete(gctx, user, l.ID)
			if err != nil {
				h.logger.Warn("lesson status read failed during evaluation",
					"telegram_id", user, "lesson_id", l.ID, "error", err)
				return nil
			}
			completed[i] = done
			return nil
		})
	}
	_ = g.Wait()

	return completed
}

// testStatus reads the block's test and its completion. A failed test fetch
// degrades to "has an unfinished test", which blocks the finish write.
func (h *EvaluateBlockHandler) testStatus(ctx context.Context, user shared.TelegramID, blockID string) (hasTest, testDone bool) {
	test, err := h.catalog.BlockTest(ctx, blockID)
	if err != nil {
		h.logger.Warn("block test read failed during evaluation",
			"block_id", blockID, "error", err)
		return true, false
	}
	if test == nil {
		return false, false
	}

	done, err := h.progress.TestComplete(ctx, user, test.ID)
	if err != nil {
		h.logger.Warn("test status read failed during evaluation",
			"telegram_id", user, "test_id", test.ID, "error", err)
		return true, false
	}
	return true, done
}

// nextBlockID finds the block following blockID in course order.
func (h *EvaluateBlockHandler) nextBlockID(ctx context.Context, courseID, blockID string) string {
	if courseID == "" {
		return ""
	}
	blocks, err := h.catalog.Blocks(ctx, courseID)
	if err != nil {
		return ""
	}
	for i, b := range blocks {
		if b.ID == blockID && i+1 < len(blocks) {
			return blocks[i+1].ID
		}
	}
	return ""
}
