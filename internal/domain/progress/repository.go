package progress

import (
	"context"

	"github.com/USamirjon/miniapp/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS SERVICE INTERFACES
// Контракт чтения и записи прогресса. Реализация - HTTP клиент платформы
// в infrastructure/external/learn; платформа - единственный арбитр истины.
// ══════════════════════════════════════════════════════════════════════════════

// Reader определяет операции чтения прогресса.
// Любой отдельный сбой чтения деградирует до пессимистичного false
// на стороне вызывающего кода, а не до ошибки всего списка.
type Reader interface {
	// LessonComplete возвращает статус завершения урока пользователем.
	LessonComplete(ctx context.Context, user shared.TelegramID, lessonID string) (bool, error)

	// TestComplete возвращает статус завершения теста пользователем.
	TestComplete(ctx context.Context, user shared.TelegramID, testID string) (bool, error)

	// BlockFinished возвращает статус завершения блока пользователем.
	// Платформа отвечает в инвертированном смысле ("блок активен" =
	// ещё не завершён); реализация обязана выполнить отрицание.
	BlockFinished(ctx context.Context, user shared.TelegramID, blockID string) (bool, error)
}

// Writer определяет операции записи прогресса.
// Сбои записи - видимые пользователю, повторяемые вручную ошибки.
type Writer interface {
	// MarkLessonComplete отмечает урок завершённым.
	// Платформа дедуплицирует повторные отметки.
	MarkLessonComplete(ctx context.Context, user shared.TelegramID, lessonID string) error

	// SubmitTestResult записывает результат прохождения теста.
	SubmitTestResult(ctx context.Context, user shared.TelegramID, testID string, passed bool, percent int) error

	// FinishBlock выполняет идемпотентное завершение блока.
	FinishBlock(ctx context.Context, user shared.TelegramID, blockID string) error

	// RecordVisit отмечает посещение урока (best-effort аналитика).
	RecordVisit(ctx context.Context, lessonID string) error
}

// Service объединяет чтение и запись прогресса.
type Service interface {
	Reader
	Writer
}
