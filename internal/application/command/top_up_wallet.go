package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/USamirjon/miniapp/internal/domain/shared"
	"github.com/USamirjon/miniapp/internal/domain/wallet"
	rediscache "github.com/USamirjon/miniapp/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOP UP WALLET COMMAND
// Credits the user's wallet. The amount must be a positive integer; the
// durable balance is re-read from the ledger after the write.
// ══════════════════════════════════════════════════════════════════════════════

// TopUpWalletCommand contains the data to credit a wallet.
type TopUpWalletCommand struct {
	// User is the acting user.
	User shared.TelegramID

	// Amount is the credit amount in whole units.
	Amount int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c TopUpWalletCommand) Validate() error {
	if c.Amount <= 0 {
		return shared.ErrInvalidAmount
	}
	return nil
}

// TopUpWalletResult contains the outcome of the top-up.
type TopUpWalletResult struct {
	// Credited is the amount written to the ledger.
	Credited int

	// Balance is the fresh ledger balance after the credit. A failed
	// re-read degrades to zero; the next load re-reads again.
	Balance int
}

// TopUpWalletHandler handles the TopUpWalletCommand.
type TopUpWalletHandler struct {
	ledger wallet.Ledger
	events shared.EventPublisher
	cache  Cache
	logger *slog.Logger
}

// NewTopUpWalletHandler creates a new TopUpWalletHandler.
func NewTopUpWalletHandler(ledger wallet.Ledger, events shared.EventPublisher, cache Cache, logger *slog.Logger) *TopUpWalletHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TopUpWalletHandler{ledger: ledger, events: events, cache: cache, logger: logger}
}

// Handle executes the top up wallet command.
func (h *TopUpWalletHandler) Handle(ctx context.Context, cmd TopUpWalletCommand) (*TopUpWalletResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if cmd.User.IsAnonymous() {
		return nil, shared.ErrAnonymousWallet
	}

	credit := wallet.Transaction{
		TelegramID: cmd.User,
		Credit:     true,
		Amount:     cmd.Amount,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.ledger.Post(ctx, credit); err != nil {
		return nil, fmt.Errorf("credit %d: %w", cmd.Amount, err)
	}

	if h.events != nil {
		_ = h.events.Publish(shared.WalletTransactionEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventWalletCredited, cmd.User.String(), cmd.User),
			Credit:    true,
			Amount:    cmd.Amount,
		})
	}
	invalidate(ctx, h.cache, h.logger, rediscache.KeyBalance(cmd.User))

	result := &TopUpWalletResult{Credited: cmd.Amount}

	balance, err := h.ledger.Balance(ctx, cmd.User)
	if err != nil {
		h.logger.Warn("balance re-read failed after credit, degrading to zero",
			"telegram_id", cmd.User, "error", err)
		return result, nil
	}
	result.Balance = int(balance)

	return result, nil
}
