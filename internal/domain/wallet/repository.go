package wallet

import (
	"context"

	"github.com/USamirjon/miniapp/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER INTERFACES
// Контракт реестра валюты. Реализация - HTTP клиент платформы.
// Клиент - тонкий доверяющий писатель, не координатор транзакций.
// ══════════════════════════════════════════════════════════════════════════════

// Ledger определяет операции с реестром кошелька.
type Ledger interface {
	// Balance возвращает текущий баланс пользователя.
	Balance(ctx context.Context, user shared.TelegramID) (Balance, error)

	// Post записывает подписанную транзакцию (fire-and-wait).
	Post(ctx context.Context, tx Transaction) error
}

// Enrollments определяет операции подписки на курсы.
type Enrollments interface {
	// Subscribe создаёт подписку пользователя на курс.
	Subscribe(ctx context.Context, user shared.TelegramID, courseID string) error

	// Subscriptions возвращает ID курсов, на которые подписан пользователь.
	Subscriptions(ctx context.Context, user shared.TelegramID) ([]string, error)
}
