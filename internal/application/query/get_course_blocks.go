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
// COURSE BLOCKS QUERY
// Упорядоченный список блоков курса с флагами "завершён" и "доступен".
// Факт завершения читается у платформы при каждой загрузке; локальное
// состояние не считается авторитетным. Сбой любого отдельного чтения
// деградирует до false для этого блока, а не до ошибки всего списка.
// ══════════════════════════════════════════════════════════════════════════════

// BlockSummaryDTO - строка списка блоков.
type BlockSummaryDTO struct {
	// ID блока.
	ID string `json:"id"`

	// Title - название блока.
	Title string `json:"title"`

	// Ordinal - позиция блока в курсе (0-based).
	Ordinal int `json:"ordinal"`

	// Finished - блок завершён пользователем.
	Finished bool `json:"finished"`

	// Unlocked - блок доступен для входа.
	Unlocked bool `json:"unlocked"`
}

// GetCourseBlocksQuery содержит параметры запроса.
type GetCourseBlocksQuery struct {
	// User - текущий пользователь (0 = аноним: открыт только первый блок).
	User shared.TelegramID

	// CourseID - курс.
	CourseID string
}

// CourseBlocksHandler обслуживает запрос списка блоков.
type CourseBlocksHandler struct {
	catalog  course.Catalog
	progress progress.Reader
	cache    Cache
	logger   *slog.Logger
}

// NewCourseBlocksHandler creates a new CourseBlocksHandler.
func NewCourseBlocksHandler(catalog course.Catalog, reader progress.Reader, cache Cache, logger *slog.Logger) *CourseBlocksHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CourseBlocksHandler{
		catalog:  catalog,
		progress: reader,
		cache:    cache,
		logger:   logger,
	}
}

// Handle возвращает блоки курса в порядке следования с вычисленными флагами.
func (h *CourseBlocksHandler) Handle(ctx context.Context, q GetCourseBlocksQuery) ([]BlockSummaryDTO, error) {
	if q.CourseID == "" {
		return nil, shared.ErrInvalidCourseID
	}

	blocks, err := h.blocks(ctx, q.CourseID)
	if err != nil {
		return nil, shared.WrapError("progress", "GetCourseBlocks", shared.ErrExternalService, "failed to load blocks", err)
	}

	finished := h.finishedStatuses(ctx, q.User, blocks)

	result := make([]BlockSummaryDTO, 0, len(blocks))
	for i, b := range blocks {
		previousFinished := i > 0 && finished[i-1]
		result = append(result, BlockSummaryDTO{
			ID:       b.ID,
			Title:    b.Title,
			Ordinal:  b.Ordinal,
			Finished: finished[i],
			Unlocked: progress.BlockUnlocked(i, previousFinished),
		})
	}
	return result, nil
}

// blocks reads the ordered block list through the cache.
func (h *CourseBlocksHandler) blocks(ctx context.Context, courseID string) ([]course.Block, error) {
	key := rediscache.KeyBlocks(courseID)

	if h.cache != nil {
		var cached []course.Block
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	blocks, err := h.catalog.Blocks(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, blocks, rediscache.TTLCatalog); err != nil {
			h.logger.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return blocks, nil
}

// finishedStatuses reads per-block finish facts concurrently. Anonymous users
// get all false without a single remote call. A failed read for one block
// becomes false for that block only.
func (h *CourseBlocksHandler) finishedStatuses(ctx context.Context, user shared.TelegramID, blocks []course.Block) []bool {
	finished := make([]bool, len(blocks))
	if user.IsAnonymous() || len(blocks) == 0 {
		return finished
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range blocks {
		i, b := i, b
		g.Go(func() error {
			finished[i] = h.blockFinished(gctx, user, b.ID)
			return nil
		})
	}
	// Collectors never return errors, so Wait cannot fail.
	_ = g.Wait()

	return finished
}

func (h *CourseBlocksHandler) blockFinished(ctx context.Context, user shared.TelegramID, blockID string) bool {
	key := rediscache.KeyBlockAggregate(user, blockID)

	if h.cache != nil {
		var cached bool
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			return cached
		}
	}

	done, err := h.progress.BlockFinished(ctx, user, blockID)
	if err != nil {
		h.logger.Warn("block status read failed, degrading to not finished",
			"telegram_id", user, "block_id", blockID, "error", err)
		return false
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, done, rediscache.TTLStatus); err != nil {
			h.logger.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return done
}
