package query

import (
	"context"
	"log/slog"

	"github.com/USamirjon/miniapp/internal/domain/shared"
	"github.com/USamirjon/miniapp/internal/domain/wallet"
	rediscache "github.com/USamirjon/miniapp/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// WALLET BALANCE QUERY
// Баланс внутренней валюты. Сбой чтения деградирует до нуля ("fails
// closed"): показать 0 и запретить покупку безопаснее, чем показать
// устаревший баланс и позволить её.
// ══════════════════════════════════════════════════════════════════════════════

// BalanceDTO - баланс кошелька.
type BalanceDTO struct {
	// Balance - текущий баланс (0 при анониме или сбое чтения).
	Balance int `json:"balance"`
}

// GetBalanceQuery содержит параметры запроса баланса.
type GetBalanceQuery struct {
	// User - текущий пользователь.
	User shared.TelegramID
}

// WalletHandler обслуживает запросы кошелька.
type WalletHandler struct {
	ledger wallet.Ledger
	cache  Cache
	logger *slog.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledger wallet.Ledger, cache Cache, logger *slog.Logger) *WalletHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WalletHandler{ledger: ledger, cache: cache, logger: logger}
}

// Balance возвращает баланс пользователя. Никогда не возвращает ошибку:
// аноним и любой сбой чтения дают ноль.
func (h *WalletHandler) Balance(ctx context.Context, q GetBalanceQuery) BalanceDTO {
	if q.User.IsAnonymous() {
		return BalanceDTO{}
	}

	key := rediscache.KeyBalance(q.User)

	if h.cache != nil {
		var cached int
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			return BalanceDTO{Balance: cached}
		}
	}

	balance, err := h.ledger.Balance(ctx, q.User)
	if err != nil {
		h.logger.Warn("balance read failed, degrading to zero",
			"telegram_id", q.User, "error", err)
		return BalanceDTO{}
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, int(balance), rediscache.TTLBalance); err != nil {
			h.logger.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return BalanceDTO{Balance: int(balance)}
}
