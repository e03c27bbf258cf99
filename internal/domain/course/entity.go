// Package course содержит доменную модель каталога: курсы, блоки, уроки и тесты.
// Это чистая бизнес-логика без внешних зависимостей; единственный владелец
// данных - удалённая платформа, клиент только читает.
package course

import (
	"time"

	"github.com/USamirjon/miniapp/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE
// ══════════════════════════════════════════════════════════════════════════════

// Course представляет курс из каталога платформы.
// Клиент никогда не изменяет курс - только читает и запускает подписку.
type Course struct {
	// ID - идентификатор курса.
	ID string

	// Title - название курса.
	Title string

	// BriefDescription - краткое описание для списка курсов.
	BriefDescription string

	// FullDescription - полное описание для страницы курса.
	FullDescription string

	// Price - цена в целых единицах валюты кошелька.
	Price int

	// Discount - действует ли скидка.
	Discount bool

	// PriceWithDiscount - цена со скидкой (имеет смысл только при Discount).
	PriceWithDiscount int

	// Topic - тематический тег курса.
	Topic string

	// CreatedAt - время создания курса на платформе.
	CreatedAt time.Time
}

// EffectivePrice возвращает действующую цену курса.
// Правило: discount == true и задана цена со скидкой => цена со скидкой,
// иначе полная цена независимо от значения PriceWithDiscount.
func (c Course) EffectivePrice() int {
	if c.Discount && c.PriceWithDiscount > 0 {
		return c.PriceWithDiscount
	}
	return c.Price
}

// IsFree проверяет, что курс доступен по подписке без оплаты.
func (c Course) IsFree() bool {
	return c.EffectivePrice() == 0
}

// Validate проверяет обязательные поля курса.
func (c Course) Validate() error {
	if c.ID == "" {
		return shared.ErrInvalidCourseID
	}
	if c.Price < 0 || c.PriceWithDiscount < 0 {
		return shared.ErrNegativeValue
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// BLOCK
// ══════════════════════════════════════════════════════════════════════════════

// Block представляет упорядоченную группу уроков внутри курса.
// Инвариант: порядковые номера уникальны в рамках курса и задают
// единственный допустимый порядок разблокировки.
type Block struct {
	// ID - идентификатор блока.
	ID string

	// CourseID - курс, которому принадлежит блок.
	CourseID string

	// Title - название блока.
	Title string

	// Ordinal - позиция блока внутри курса (с нуля).
	Ordinal int
}

// Validate проверяет обязательные поля блока.
func (b Block) Validate() error {
	if b.ID == "" {
		return shared.ErrInvalidBlockID
	}
	if b.Ordinal < 0 {
		return shared.ErrNegativeValue
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON
// ══════════════════════════════════════════════════════════════════════════════

// Lesson представляет урок внутри блока. Флаг завершённости не хранится
// в самой сущности - это отношение (пользователь, урок), которое
// поставляет Progress Tracker.
type Lesson struct {
	// ID - идентификатор урока.
	ID string

	// BlockID - блок, которому принадлежит урок.
	BlockID string

	// Title - название урока.
	Title string

	// Description - краткое описание.
	Description string

	// Content - тело урока (rich text, отображается как есть).
	Content string

	// Experience - награда XP за завершение урока.
	Experience int

	// Ordinal - позиция урока внутри блока (с нуля).
	Ordinal int
}

// Validate проверяет обязательные поля урока.
func (l Lesson) Validate() error {
	if l.ID == "" {
		return shared.ErrInvalidLessonID
	}
	if l.Experience < 0 {
		return shared.ErrNegativeValue
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TEST
// ══════════════════════════════════════════════════════════════════════════════

// Test представляет тест блока. У блока не более одного теста; тест
// доступен только после завершения всех уроков блока.
type Test struct {
	// ID - идентификатор теста.
	ID string

	// BlockID - блок, которому принадлежит тест.
	BlockID string

	// Title - название теста.
	Title string

	// Description - краткое описание.
	Description string

	// Questions - упорядоченный список вопросов.
	Questions []Question
}

// Question представляет один вопрос теста.
// Инвариант: ровно один ответ помечен как правильный.
type Question struct {
	// ID - идентификатор вопроса.
	ID string

	// Title - формулировка вопроса.
	Title string

	// Answers - упорядоченный список вариантов ответа.
	Answers []Answer
}

// CorrectAnswer возвращает правильный вариант ответа.
func (q Question) CorrectAnswer() (Answer, bool) {
	for _, a := range q.Answers {
		if a.IsCorrect {
			return a, true
		}
	}
	return Answer{}, false
}

// Answer представляет вариант ответа на вопрос.
type Answer struct {
	// ID - идентификатор варианта.
	ID string

	// Title - текст варианта.
	Title string

	// IsCorrect - является ли вариант правильным.
	IsCorrect bool

	// Explanation - пояснение, показываемое после выбора.
	Explanation string
}
