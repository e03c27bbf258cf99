package course

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG INTERFACES
// Контракт чтения каталога. Реализация - HTTP клиент платформы
// в infrastructure/external/learn.
// ══════════════════════════════════════════════════════════════════════════════

// Catalog определяет операции чтения каталога курсов.
type Catalog interface {
	// Courses возвращает список всех курсов каталога.
	Courses(ctx context.Context) ([]Course, error)

	// Course возвращает курс по ID.
	// Возвращает shared.ErrCourseNotFound, если курс не найден.
	Course(ctx context.Context, courseID string) (*Course, error)

	// Blocks возвращает упорядоченный список блоков курса.
	Blocks(ctx context.Context, courseID string) ([]Block, error)

	// Lessons возвращает упорядоченный список уроков блока.
	Lessons(ctx context.Context, blockID string) ([]Lesson, error)

	// BlockTest возвращает тест блока или nil, если теста нет.
	// Отсутствие теста - не ошибка: платформа отвечает пустым телом.
	BlockTest(ctx context.Context, blockID string) (*Test, error)
}
