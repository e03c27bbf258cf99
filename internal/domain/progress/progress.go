// Package progress содержит правила последовательного прохождения курса:
// когда урок, тест или блок считаются доступными и когда блок завершён.
// Все предикаты - чистые функции; источником фактов служит удалённая
// платформа, пакет ничего не кеширует.
package progress

import (
	"time"

	"github.com/USamirjon/miniapp/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORDS
// ══════════════════════════════════════════════════════════════════════════════

// CompletionRecord представляет факт завершения урока или теста
// пользователем. Создаётся один раз и никогда не удаляется клиентом.
type CompletionRecord struct {
	// TelegramID - пользователь.
	TelegramID shared.TelegramID

	// LessonID - завершённый урок (пусто для теста).
	LessonID string

	// TestID - завершённый тест (пусто для урока).
	TestID string

	// Done - факт завершения.
	Done bool

	// Percent - процент правильных ответов (только для теста).
	Percent int

	// RecordedAt - время записи на стороне клиента.
	RecordedAt time.Time
}

// BlockFinishRecord представляет факт завершения блока пользователем.
// Запись идемпотентна: повторная отправка не даёт двойного зачисления.
type BlockFinishRecord struct {
	// TelegramID - пользователь.
	TelegramID shared.TelegramID

	// BlockID - завершённый блок.
	BlockID string

	// Finished - факт завершения.
	Finished bool

	// RecordedAt - время записи на стороне клиента.
	RecordedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// UNLOCK PREDICATES
// ══════════════════════════════════════════════════════════════════════════════

// BlockUnlocked решает, доступен ли блок с порядковым номером ordinal.
// Блок k доступен тогда и только тогда, когда блок k-1 завершён;
// первый блок доступен всегда. Предикат пересчитывается при каждой
// загрузке и никогда не кешируется между загрузками.
func BlockUnlocked(ordinal int, previousFinished bool) bool {
	if ordinal <= 0 {
		return true
	}
	return previousFinished
}

// LessonUnlocked решает, доступен ли урок с индексом index при известных
// статусах завершения уроков блока (слева направо). Урок i > 0 доступен
// тогда и только тогда, когда урок i-1 завершён; урок 0 доступен всегда.
func LessonUnlocked(index int, completed []bool) bool {
	if index <= 0 {
		return true
	}
	if index > len(completed) {
		return false
	}
	return completed[index-1]
}

// TestUnlocked решает, доступен ли тест блока: все уроки должны быть
// завершены. Пустой блок без уроков открывает тест сразу.
func TestUnlocked(lessonsCompleted []bool) bool {
	return AllDone(lessonsCompleted)
}

// BlockComplete решает, выполнены ли условия завершения блока:
// все уроки завершены и (теста нет, или тест завершён).
func BlockComplete(lessonsCompleted []bool, hasTest, testDone bool) bool {
	if !AllDone(lessonsCompleted) {
		return false
	}
	return !hasTest || testDone
}

// AllDone проверяет, что все статусы истинны.
func AllDone(completed []bool) bool {
	for _, done := range completed {
		if !done {
			return false
		}
	}
	return true
}
