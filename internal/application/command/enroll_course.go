package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/USamirjon/miniapp/internal/domain/course"
	"github.com/USamirjon/miniapp/internal/domain/shared"
	"github.com/USamirjon/miniapp/internal/domain/wallet"
	rediscache "github.com/USamirjon/miniapp/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLL COURSE COMMAND
// Enrolls the user into a course. Free courses subscribe directly. Paid
// courses run the purchase sequence: fresh balance read, local affordability
// check before any write, a signed debit transaction, then the subscription
// conditioned on the debit. The engine is a thin trusting writer, not a
// transaction coordinator: a failure between the two writes surfaces to the
// user and the platform's records remain the arbiter.
// ══════════════════════════════════════════════════════════════════════════════

// EnrollCourseCommand contains the data to enroll into a course.
type EnrollCourseCommand struct {
	// User is the acting user.
	User shared.TelegramID

	// CourseID is the course to enroll into.
	CourseID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c EnrollCourseCommand) Validate() error {
	if c.CourseID == "" {
		return shared.ErrInvalidCourseID
	}
	return nil
}

// EnrollCourseResult contains the outcome of the enrollment.
type EnrollCourseResult struct {
	// Purchased reports whether a debit was involved (false for free courses).
	Purchased bool

	// PricePaid is the effective price charged (0 for free courses).
	PricePaid int

	// RemainingBalance is the optimistic balance after the debit. The
	// durable value is re-read from the ledger on the next load.
	RemainingBalance int
}

// EnrollCourseHandler handles the EnrollCourseCommand.
type EnrollCourseHandler struct {
	catalog     course.Catalog
	ledger      wallet.Ledger
	enrollments wallet.Enrollments
	events      shared.EventPublisher
	cache       Cache
	logger      *slog.Logger
}

// NewEnrollCourseHandler creates a new EnrollCourseHandler.
func NewEnrollCourseHandler(
	catalog course.Catalog,
	ledger wallet.Ledger,
	enrollments wallet.Enrollments,
	events shared.EventPublisher,
	cache Cache,
	logger *slog.Logger,
) *EnrollCourseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrollCourseHandler{
		catalog:     catalog,
		ledger:      ledger,
		enrollments: enrollments,
		events:      events,
		cache:       cache,
		logger:      logger,
	}
}

// Handle executes the enroll course command.
func (h *EnrollCourseHandler) Handle(ctx context.Context, cmd EnrollCourseCommand) (*EnrollCourseResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if cmd.User.IsAnonymous() {
		return nil, shared.ErrAnonymousEnrollment
	}

	c, err := h.catalog.Course(ctx, cmd.CourseID)
	if err != nil {
		return nil, fmt.Errorf("enroll course %s: %w", cmd.CourseID, err)
	}

	price := c.EffectivePrice()
	if price == 0 {
		return h.subscribeFree(ctx, cmd)
	}
	return h.purchase(ctx, cmd, price)
}

func (h *EnrollCourseHandler) subscribeFree(ctx context.Context, cmd EnrollCourseCommand) (*EnrollCourseResult, error) {
	if err := h.enrollments.Subscribe(ctx, cmd.User, cmd.CourseID); err != nil {
		return nil, fmt.Errorf("subscribe to course %s: %w", cmd.CourseID, err)
	}

	if h.events != nil {
		_ = h.events.Publish(shared.CourseEnrolledEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventCourseEnrolled, cmd.CourseID, cmd.User),
			CourseID:  cmd.CourseID,
		})
	}
	invalidate(ctx, h.cache, h.logger, rediscache.KeySubscriptions(cmd.User))

	h.logger.Info("enrolled into free course",
		"telegram_id", cmd.User,
		"course_id", cmd.CourseID,
		"correlation_id", cmd.CorrelationID,
	)
	return &EnrollCourseResult{}, nil
}

func (h *EnrollCourseHandler) purchase(ctx context.Context, cmd EnrollCourseCommand, price int) (*EnrollCourseResult, error) {
	// Fresh ledger read; a failed read degrades to zero and fails the
	// affordability check closed. No write has happened yet.
	balance, err := h.ledger.Balance(ctx, cmd.User)
	if err != nil {
		h.logger.Warn("balance read failed before purchase, degrading to zero",
			"telegram_id", cmd.User, "error", err)
		balance = 0
	}
	if !balance.CanAfford(price) {
		return nil, shared.ErrWalletInsufficientFunds
	}

	debit := wallet.Transaction{
		TelegramID: cmd.User,
		Credit:     false,
		Amount:     price,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.ledger.Post(ctx, debit); err != nil {
		return nil, fmt.Errorf("debit %d for course %s: %w", price, cmd.CourseID, err)
	}

	if err := h.enrollments.Subscribe(ctx, cmd.User, cmd.CourseID); err != nil {
		// The debit went through; the subscription did not. Surface the
		// error with enough context for support to reconcile.
		h.logger.Error("subscribe failed after debit",
			"telegram_id", cmd.User,
			"course_id", cmd.CourseID,
			"amount", price,
			"correlation_id", cmd.CorrelationID,
			"error", err,
		)
		return nil, fmt.Errorf("subscribe after debit for course %s: %w", cmd.CourseID, err)
	}

	if h.events != nil {
		_ = h.events.Publish(shared.WalletTransactionEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventWalletDebited, cmd.CourseID, cmd.User),
			Credit:    false,
			Amount:    price,
		})
		_ = h.events.Publish(shared.CourseEnrolledEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventCoursePurchased, cmd.CourseID, cmd.User),
			CourseID:  cmd.CourseID,
			PricePaid: price,
		})
	}
	invalidate(ctx, h.cache, h.logger,
		rediscache.KeySubscriptions(cmd.User),
		rediscache.KeyBalance(cmd.User),
	)

	h.logger.Info("course purchased",
		"telegram_id", cmd.User,
		"course_id", cmd.CourseID,
		"price", price,
		"correlation_id", cmd.CorrelationID,
	)
	return &EnrollCourseResult{
		Purchased:        true,
		PricePaid:        price,
		RemainingBalance: int(balance.AfterDebit(price)),
	}, nil
}
