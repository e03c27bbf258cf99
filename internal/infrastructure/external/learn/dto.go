package learn

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG DTOs
// External representations returned by the platform API; the mapper converts
// them to domain entities.
// ══════════════════════════════════════════════════════════════════════════════

// CourseDTO represents a course as returned by the platform.
type CourseDTO struct {
	// ID is the unique course identifier
	ID string `json:"id"`

	// Title is the course name
	Title string `json:"title"`

	// BriefDescription is shown in course lists
	BriefDescription string `json:"briefDescription,omitempty"`

	// FullDescription is shown on the course page
	FullDescription string `json:"fullDescription,omitempty"`

	// Price is the list price in whole wallet units
	Price int `json:"price"`

	// Discount indicates an active discount
	Discount bool `json:"discount,omitempty"`

	// PriceWithDiscount is meaningful only when Discount is set
	PriceWithDiscount int `json:"priceWithDiscount,omitempty"`

	// Topic is the course topic tag
	Topic string `json:"topic,omitempty"`

	// CreatedAt is the server-side creation timestamp
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// BlockDTO represents a block (ordered group of lessons) within a course.
type BlockDTO struct {
	ID       string `json:"id"`
	CourseID string `json:"courseId,omitempty"`
	Title    string `json:"title"`

	// Ordinal defines the only valid unlock order within the course
	Ordinal int `json:"ordinal"`
}

// LessonDTO represents a lesson within a block.
type LessonDTO struct {
	ID          string `json:"id"`
	BlockID     string `json:"blockId,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`

	// Experience is the XP reward for completing the lesson
	Experience int `json:"experience"`

	Ordinal int `json:"ordinal"`
}

// TestDTO represents a block's quiz. A block has at most one.
type TestDTO struct {
	ID          string        `json:"id"`
	BlockID     string        `json:"blockId,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Questions   []QuestionDTO `json:"questions,omitempty"`
}

// QuestionDTO represents a single quiz question.
type QuestionDTO struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Answers []AnswerDTO `json:"answers"`
}

// AnswerDTO represents one answer option.
type AnswerDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation,omitempty"`
}

// UserDTO represents the platform's view of a user profile.
type UserDTO struct {
	TelegramID int64  `json:"telegramId"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Username   string `json:"userName,omitempty"`
	Experience int    `json:"experience"`
	Level      int    `json:"level"`
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE REQUEST DTOs
// ══════════════════════════════════════════════════════════════════════════════

// LessonStatusRequestDTO marks a lesson complete.
type LessonStatusRequestDTO struct {
	TelegramID int64  `json:"telegramId"`
	LessonID   string `json:"lessonId"`
}

// TestResultRequestDTO records a quiz outcome.
type TestResultRequestDTO struct {
	TelegramID        int64  `json:"telegramId"`
	TestID            string `json:"testId"`
	Passed            bool   `json:"passed"`
	PercentageCorrect int    `json:"percentageCorrect"`
}

// EnrollmentRequestDTO creates an enrollment.
type EnrollmentRequestDTO struct {
	TelegramID int64  `json:"telegramId"`
	CourseID   string `json:"courseId"`
}

// WalletTransactionRequestDTO posts a signed wallet transaction.
// Credit true is a top-up; credit false is the debit half of a purchase.
type WalletTransactionRequestDTO struct {
	TelegramID int64 `json:"telegramId"`
	Credit     bool  `json:"credit"`
	Amount     int   `json:"amount"`
}

// VisitRequestDTO records a lesson visit (best-effort analytics).
type VisitRequestDTO struct {
	LessonID string `json:"lessonId"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR DTO
// ══════════════════════════════════════════════════════════════════════════════

// APIErrorDTO represents an error payload from the platform.
type APIErrorDTO struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}
