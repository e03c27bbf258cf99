// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/USamirjon/miniapp/internal/domain/course"
	"github.com/USamirjon/miniapp/internal/domain/shared"
	rediscache "github.com/USamirjon/miniapp/internal/infrastructure/persistence/redis"
)

// Cache is the transient read-through cache the queries use. A nil Cache
// disables caching entirely; every read goes to the platform.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG QUERIES
// Список курсов и карточка курса. Цена всегда отдаётся как эффективная:
// скидка применяется здесь, фронтенд её не пересчитывает.
// ══════════════════════════════════════════════════════════════════════════════

// CourseSummaryDTO - строка каталога для списка курсов.
type CourseSummaryDTO struct {
	// ID курса.
	ID string `json:"id"`

	// Title - название курса.
	Title string `json:"title"`

	// BriefDescription - краткое описание для карточки.
	BriefDescription string `json:"briefDescription"`

	// Topic - тематический тег.
	Topic string `json:"topic,omitempty"`

	// Price - полная цена.
	Price int `json:"price"`

	// EffectivePrice - цена к оплате с учётом скидки.
	EffectivePrice int `json:"effectivePrice"`

	// Discount - действует ли скидка.
	Discount bool `json:"discount"`

	// Free - курс бесплатный.
	Free bool `json:"free"`

	// Subscribed - подписан ли текущий пользователь.
	Subscribed bool `json:"subscribed"`

	// CreatedAt - дата создания курса.
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// CourseDetailDTO - полная карточка курса.
type CourseDetailDTO struct {
	CourseSummaryDTO

	// FullDescription - полное описание.
	FullDescription string `json:"fullDescription"`

	// PriceWithDiscount - цена со скидкой, как её назвала платформа.
	PriceWithDiscount int `json:"priceWithDiscount,omitempty"`
}

// ListCoursesQuery содержит параметры запроса каталога.
type ListCoursesQuery struct {
	// User - текущий пользователь (0 = аноним, флаг Subscribed всегда false).
	User shared.TelegramID
}

// GetCourseQuery содержит параметры запроса карточки курса.
type GetCourseQuery struct {
	// User - текущий пользователь.
	User shared.TelegramID

	// CourseID - запрашиваемый курс.
	CourseID string
}

// CatalogHandler обслуживает запросы каталога.
type CatalogHandler struct {
	catalog     course.Catalog
	enrollments EnrollmentReader
	cache       Cache
	logger      *slog.Logger
}

// EnrollmentReader reads the user's course subscriptions.
type EnrollmentReader interface {
	Subscriptions(ctx context.Context, user shared.TelegramID) ([]string, error)
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog course.Catalog, enrollments EnrollmentReader, cache Cache, logger *slog.Logger) *CatalogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogHandler{
		catalog:     catalog,
		enrollments: enrollments,
		cache:       cache,
		logger:      logger,
	}
}

// ListCourses возвращает каталог с эффективными ценами и отметкой подписки.
// Сбой чтения подписок деградирует до "не подписан" и логируется.
func (h *CatalogHandler) ListCourses(ctx context.Context, q ListCoursesQuery) ([]CourseSummaryDTO, error) {
	courses, err := h.courses(ctx)
	if err != nil {
		return nil, shared.WrapError("course", "ListCourses", shared.ErrExternalService, "failed to load catalog", err)
	}

	subscribed := h.subscriptionSet(ctx, q.User)

	result := make([]CourseSummaryDTO, 0, len(courses))
	for _, c := range courses {
		result = append(result, summaryFromCourse(c, subscribed[c.ID]))
	}
	return result, nil
}

// GetCourse возвращает карточку курса.
func (h *CatalogHandler) GetCourse(ctx context.Context, q GetCourseQuery) (*CourseDetailDTO, error) {
	if q.CourseID == "" {
		return nil, shared.ErrInvalidCourseID
	}

	c, err := h.course(ctx, q.CourseID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		return nil, shared.WrapError("course", "GetCourse", shared.ErrExternalService, "failed to load course", err)
	}

	subscribed := h.subscriptionSet(ctx, q.User)

	detail := &CourseDetailDTO{
		CourseSummaryDTO:  summaryFromCourse(*c, subscribed[c.ID]),
		FullDescription:   c.FullDescription,
		PriceWithDiscount: c.PriceWithDiscount,
	}
	return detail, nil
}

// courses reads the catalog through the cache.
func (h *CatalogHandler) courses(ctx context.Context) ([]course.Course, error) {
	key := rediscache.KeyCourses()

	if h.cache != nil {
		var cached []course.Course
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	courses, err := h.catalog.Courses(ctx)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, courses, rediscache.TTLCatalog); err != nil {
			h.logger.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return courses, nil
}

func (h *CatalogHandler) course(ctx context.Context, courseID string) (*course.Course, error) {
	key := rediscache.KeyCourse(courseID)

	if h.cache != nil {
		var cached course.Course
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	c, err := h.catalog.Course(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, c, rediscache.TTLCatalog); err != nil {
			h.logger.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return c, nil
}

// subscriptionSet reads the user's subscriptions, degrading to empty on any
// failure. Anonymous users have no subscriptions and cost no remote call.
func (h *CatalogHandler) subscriptionSet(ctx context.Context, user shared.TelegramID) map[string]bool {
	if user.IsAnonymous() {
		return nil
	}

	key := rediscache.KeySubscriptions(user)

	var ids []string
	cached := false
	if h.cache != nil {
		if err := h.cache.Get(ctx, key, &ids); err == nil {
			cached = true
		}
	}

	if !cached {
		var err error
		ids, err = h.enrollments.Subscriptions(ctx, user)
		if err != nil {
			h.logger.Warn("subscriptions read failed, degrading to none",
				"telegram_id", user, "error", err)
			return nil
		}
		if h.cache != nil {
			if err := h.cache.Set(ctx, key, ids, rediscache.TTLStatus); err != nil {
				h.logger.Warn("cache set failed", "key", key, "error", err)
			}
		}
	}

	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func summaryFromCourse(c course.Course, subscribed bool) CourseSummaryDTO {
	return CourseSummaryDTO{
		ID:               c.ID,
		Title:            c.Title,
		BriefDescription: c.BriefDescription,
		Topic:            c.Topic,
		Price:            c.Price,
		EffectivePrice:   c.EffectivePrice(),
		Discount:         c.Discount,
		Free:             c.IsFree(),
		Subscribed:       subscribed,
		CreatedAt:        c.CreatedAt,
	}
}
