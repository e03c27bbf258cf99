package shared

import "fmt"

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// TelegramID represents the opaque user identifier supplied by the mini-app
// host environment. Zero means anonymous: the engine degrades to read-only
// and every status query reports "not complete".
type TelegramID int64

// IsValid checks if the Telegram ID identifies a real user.
func (t TelegramID) IsValid() bool {
	return t > 0
}

// IsAnonymous reports the absence of a user identity.
func (t TelegramID) IsAnonymous() bool {
	return t <= 0
}

// Int64 returns the underlying int64 value.
func (t TelegramID) Int64() int64 {
	return int64(t)
}

// String returns the string representation.
func (t TelegramID) String() string {
	return fmt.Sprintf("%d", t)
}

// ═══════════════════════════════════════════════════════════════════════════
// Identity
// ═══════════════════════════════════════════════════════════════════════════

// Identity carries the user information the host environment supplies.
// Only TelegramID participates in engine decisions; the display fields are
// surfaced for greeting/profile rendering.
type Identity struct {
	// TelegramID - опознавательный ключ пользователя (0 = аноним).
	TelegramID TelegramID

	// FirstName - имя для приветствия.
	FirstName string

	// LastName - фамилия (может быть пустой).
	LastName string

	// Username - @username в Telegram (может быть пустым).
	Username string
}

// Anonymous returns the identity of a user without an id.
func Anonymous() Identity {
	return Identity{}
}

// IsAnonymous reports whether no user id is available.
func (i Identity) IsAnonymous() bool {
	return i.TelegramID.IsAnonymous()
}

// DisplayName returns the best-effort human-readable name.
func (i Identity) DisplayName() string {
	switch {
	case i.FirstName != "" && i.LastName != "":
		return i.FirstName + " " + i.LastName
	case i.FirstName != "":
		return i.FirstName
	case i.Username != "":
		return "@" + i.Username
	default:
		return "guest"
	}
}

// Profile - профиль пользователя на платформе: идентичность плюс
// накопленный опыт и уровень.
type Profile struct {
	Identity

	// Experience - суммарный накопленный опыт.
	Experience int

	// Level - уровень, вычисленный платформой.
	Level int
}

// ═══════════════════════════════════════════════════════════════════════════
// Experience
// ═══════════════════════════════════════════════════════════════════════════

// XP represents experience points granted by lesson completions.
type XP int

// IsValid checks that the XP amount is non-negative.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add adds XP amounts.
func (x XP) Add(delta XP) XP {
	return x + delta
}
