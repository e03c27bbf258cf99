package query

import (
	"context"
	"log/slog"

	"github.com/USamirjon/miniapp/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE QUERY
// Профиль пользователя для приветствия и страницы профиля: имя, опыт,
// уровень. Аноним получает гостевой профиль без обращения к платформе.
// ══════════════════════════════════════════════════════════════════════════════

// ProfileDTO - профиль пользователя.
type ProfileDTO struct {
	// TelegramID пользователя (0 = аноним).
	TelegramID int64 `json:"telegramId"`

	// DisplayName - имя для приветствия.
	DisplayName string `json:"displayName"`

	// Username - @username в Telegram.
	Username string `json:"username,omitempty"`

	// Experience - суммарный опыт.
	Experience int `json:"experience"`

	// Level - уровень.
	Level int `json:"level"`

	// Anonymous - профиль гостя.
	Anonymous bool `json:"anonymous"`
}

// GetProfileQuery содержит параметры запроса профиля.
type GetProfileQuery struct {
	// Identity - проверенная идентичность из initData.
	Identity shared.Identity
}

// ProfileReader reads the platform's view of a user.
type ProfileReader interface {
	Profile(ctx context.Context, user shared.TelegramID) (shared.Profile, error)
}

// ProfileHandler обслуживает запрос профиля.
type ProfileHandler struct {
	reader ProfileReader
	logger *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(reader ProfileReader, logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandler{reader: reader, logger: logger}
}

// Handle возвращает профиль. Сбой чтения платформы деградирует до профиля
// из одних только полей initData: опыт и уровень нулевые, имя остаётся.
func (h *ProfileHandler) Handle(ctx context.Context, q GetProfileQuery) ProfileDTO {
	if q.Identity.IsAnonymous() {
		return ProfileDTO{
			DisplayName: q.Identity.DisplayName(),
			Anonymous:   true,
		}
	}

	dto := ProfileDTO{
		TelegramID:  q.Identity.TelegramID.Int64(),
		DisplayName: q.Identity.DisplayName(),
		Username:    q.Identity.Username,
	}

	profile, err := h.reader.Profile(ctx, q.Identity.TelegramID)
	if err != nil {
		h.logger.Warn("profile read failed, degrading to init data fields",
			"telegram_id", q.Identity.TelegramID, "error", err)
		return dto
	}

	dto.Experience = profile.Experience
	dto.Level = profile.Level
	if profile.FirstName != "" || profile.Username != "" {
		dto.DisplayName = profile.DisplayName()
	}
	return dto
}
