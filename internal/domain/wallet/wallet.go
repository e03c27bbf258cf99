// Package wallet содержит доменную модель виртуальной валюты: баланс
// и подписанные транзакции. Долговечное значение баланса всегда живёт
// на платформе; локальное вычитание - только оптимистичное удобство UI.
package wallet

import (
	"time"

	"github.com/USamirjon/miniapp/internal/domain/shared"
)

// Balance представляет баланс кошелька пользователя в целых единицах.
// Сбой чтения деградирует до 0, никогда до "неизвестно": проверки
// платёжеспособности ниже по течению отказывают безопасно.
type Balance int

// CanAfford проверяет достаточность средств для указанной цены.
func (b Balance) CanAfford(price int) bool {
	return int(b) >= price
}

// AfterDebit возвращает оптимистичный остаток после списания.
// Значение - удобство отображения; долговечный баланс перечитывается
// из реестра при следующей загрузке.
func (b Balance) AfterDebit(amount int) Balance {
	return Balance(int(b) - amount)
}

// Transaction представляет подписанную транзакцию кошелька.
// Credit == true - пополнение, Credit == false - списание при покупке.
type Transaction struct {
	// TelegramID - владелец кошелька.
	TelegramID shared.TelegramID

	// Credit - направление транзакции.
	Credit bool

	// Amount - сумма в целых единицах (> 0).
	Amount int

	// CreatedAt - время создания на стороне клиента.
	CreatedAt time.Time
}

// Validate проверяет корректность транзакции.
func (t Transaction) Validate() error {
	if t.TelegramID.IsAnonymous() {
		return shared.ErrAnonymousWallet
	}
	if t.Amount <= 0 {
		return shared.ErrInvalidAmount
	}
	return nil
}
