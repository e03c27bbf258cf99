package query

import (
	"context"
	"log/slog"

	"github.com/USamirjon/miniapp/internal/domain/course"
	"github.com/USamirjon/miniapp/internal/domain/progress"
	"github.com/USamirjon/miniapp/internal/domain/shared"
	rediscache "github.com/USamirjon/miniapp/internal/infrastructure/persistence/redis"
	"golang.org/x/sync/errgroup"
)

// ══════════════════════════════════════════════════════════════════════════════
// BLOCK CONTENT QUERY
// Содержимое блока: уроки по порядку, опциональный тест, статусы завершения
// и флаги доступности. Правило последовательности: урок i доступен тогда и
// только тогда, когда урок i-1 завершён; тест открывается после всех уроков.
// Аноним не порождает ни одного запроса статуса: всё "не завершено",
// открыт только первый урок.
// ══════════════════════════════════════════════════════════════════════════════

// LessonItemDTO - урок в списке содержимого блока.
type LessonItemDTO struct {
	// ID урока.
	ID string `json:"id"`

	// Title - название урока.
	Title string `json:"title"`

	// Description - краткое описание.
	Description string `json:"description,omitempty"`

	// Experience - награда опыта за завершение.
	Experience int `json:"experience"`

	// Ordinal - позиция урока в блоке (0-based).
	Ordinal int `json:"ordinal"`

	// Complete - урок завершён пользователем.
	Complete bool `json:"complete"`

	// Unlocked - урок доступен для открытия.
	Unlocked bool `json:"unlocked"`

	// LastWithoutTest - последний урок блока, у которого подтверждённо
	// нет теста: его завершение завершает блок. При сбое чтения теста
	// флаг не выставляется.
	LastWithoutTest bool `json:"lastWithoutTest"`
}

// TestItemDTO - тест блока в списке содержимого.
type TestItemDTO struct {
	// ID теста.
	ID string `json:"id"`

	// Title - название теста.
	Title string `json:"title"`

	// Description - описание.
	Description string `json:"description,omitempty"`

	// Questions - число вопросов.
	Questions int `json:"questions"`

	// Complete - тест завершён пользователем.
	Complete bool `json:"complete"`

	// Unlocked - тест доступен (все уроки завершены).
	Unlocked bool `json:"unlocked"`
}

// BlockContentDTO - полное содержимое блока.
type BlockContentDTO struct {
	// BlockID - блок.
	BlockID string `json:"blockId"`

	// Lessons - уроки по порядку.
	Lessons []LessonItemDTO `json:"lessons"`

	// Test - тест блока, nil если теста нет.
	Test *TestItemDTO `json:"test,omitempty"`

	// Complete - выполнены ли условия завершения блока.
	Complete bool `json:"complete"`
}

// GetBlockContentQuery содержит параметры запроса.
type GetBlockContentQuery struct {
	// User - текущий пользователь (0 = аноним).
	User shared.TelegramID

	// BlockID - блок.
	BlockID string
}

// BlockContentHandler обслуживает запрос содержимого блока.
type BlockContentHandler struct {
	catalog  course.Catalog
	progress progress.Reader
	cache    Cache
	logger   *slog.Logger
}

// NewBlockContentHandler creates a new BlockContentHandler.
func NewBlockContentHandler(catalog course.Catalog, reader progress.Reader, cache Cache, logger *slog.Logger) *BlockContentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlockContentHandler{
		catalog:  catalog,
		progress: reader,
		cache:    cache,
		logger:   logger,
	}
}

// Handle собирает содержимое блока с флагами завершения и доступности.
func (h *BlockContentHandler) Handle(ctx context.Context, q GetBlockContentQuery) (*BlockContentDTO, error) {
	if q.BlockID == "" {
		return nil, shared.ErrInvalidBlockID
	}

	lessons, err := h.lessons(ctx, q.BlockID)
	if err != nil {
		return nil, shared.WrapError("progress", "GetBlockContent", shared.ErrExternalService, "failed to load lessons", err)
	}

	// Отсутствие теста - штатный случай, не ошибка. Сбой запроса теста
	// деградирует до "теста нет" только для отображения: флаг
	// LastWithoutTest при этом не выставляется, утверждать "теста нет"
	// можно лишь после успешного чтения.
	test, err := h.catalog.BlockTest(ctx, q.BlockID)
	noTest := err == nil && test == nil
	if err != nil {
		h.logger.Warn("block test read failed, degrading to no test",
			"block_id", q.BlockID, "error", err)
		test = nil
	}

	completed, testDone := h.statuses(ctx, q.User, lessons, test)

	content := &BlockContentDTO{
		BlockID: q.BlockID,
		Lessons: make([]LessonItemDTO, 0, len(lessons)),
	}

	for i, l := range lessons {
		content.Lessons = append(content.Lessons, LessonItemDTO{
			ID:              l.ID,
			Title:           l.Title,
			Description:     l.Description,
			Experience:      l.Experience,
			Ordinal:         l.Ordinal,
			Complete:        completed[i],
			Unlocked:        progress.LessonUnlocked(i, completed),
			LastWithoutTest: noTest && i == len(lessons)-1,
		})
	}

	if test != nil {
		content.Test = &TestItemDTO{
			ID:          test.ID,
			Title:       test.Title,
			Description: test.Description,
			Questions:   len(test.Questions),
			Complete:    testDone,
			Unlocked:    progress.TestUnlocked(completed),
		}
	}

	content.Complete = progress.BlockComplete(completed, test != nil, testDone)
	return content, nil
}

// lessons reads the ordered lesson list through the cache.
func (h *BlockContentHandler) lessons(ctx context.Context, blockID string) ([]course.Lesson, error) {
	key := rediscache.KeyLessons(blockID)

	if h.cache != nil {
		var cached []course.Lesson
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	lessons, err := h.catalog.Lessons(ctx, blockID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, lessons, rediscache.TTLCatalog); err != nil {
			h.logger.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return lessons, nil
}

// statuses fans out the per-lesson and test status reads. Each failed read
// degrades to false for its own item and is logged; the batch never aborts.
func (h *BlockContentHandler) statuses(ctx context.Context, user shared.TelegramID, lessons []course.Lesson, test *course.Test) ([]bool, bool) {
	completed := make([]bool, len(lessons))
	testDone := false

	if user.IsAnonymous() {
		return completed, false
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, l := range lessons {
		i, l := i, l
		g.Go(func() error {
			completed[i] = h.lessonComplete(gctx, user, l.ID)
			return nil
		})
	}
	if test != nil {
		g.Go(func() error {
			testDone = h.testComplete(gctx, user, test.ID)
			return nil
		})
	}
	_ = g.Wait()

	return completed, testDone
}

func (h *BlockContentHandler) lessonComplete(ctx context.Context, user shared.TelegramID, lessonID string) bool {
	key := rediscache.KeyLessonStatus(user, lessonID)

	if h.cache != nil {
		var cached bool
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			return cached
		}
	}

	done, err := h.progress.LessonComplete(ctx, user, lessonID)
	if err != nil {
		h.logger.Warn("lesson status read failed, degrading to not complete",
			"telegram_id", user, "lesson_id", lessonID, "error", err)
		return false
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, done, rediscache.TTLStatus); err != nil {
			h.logger.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return done
}

func (h *BlockContentHandler) testComplete(ctx context.Context, user shared.TelegramID, testID string) bool {
	key := rediscache.KeyTestStatus(user, testID)

	if h.cache != nil {
		var cached bool
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			return cached
		}
	}

	done, err := h.progress.TestComplete(ctx, user, testID)
	if err != nil {
		h.logger.Warn("test status read failed, degrading to not complete",
			"telegram_id", user, "test_id", testID, "error", err)
		return false
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, done, rediscache.TTLStatus); err != nil {
			h.logger.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return done
}
