package learn

import (
	"errors"
	"sort"

	"github.com/USamirjon/miniapp/internal/domain/course"
	"github.com/USamirjon/miniapp/internal/domain/shared"
)

// ErrNilDTO is returned when a mapper receives a nil DTO.
var ErrNilDTO = errors.New("nil DTO")

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to Domain Entity transformations
// ══════════════════════════════════════════════════════════════════════════════

// Mapper handles transformation between platform API DTOs and domain entities.
// This follows the Anti-Corruption Layer pattern from DDD, protecting our domain
// from external API changes.
type Mapper struct{}

// NewMapper creates a new Mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// CourseFromDTO converts a CourseDTO to a domain Course.
func (m *Mapper) CourseFromDTO(dto *CourseDTO) (*course.Course, error) {
	if dto == nil {
		return nil, ErrNilDTO
	}
	c := course.Course{
		ID:                dto.ID,
		Title:             dto.Title,
		BriefDescription:  dto.BriefDescription,
		FullDescription:   dto.FullDescription,
		Price:             dto.Price,
		Discount:          dto.Discount,
		PriceWithDiscount: dto.PriceWithDiscount,
		Topic:             dto.Topic,
		CreatedAt:         dto.CreatedAt,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// CoursesFromDTO converts a course list, skipping entries the platform sent
// malformed rather than failing the whole catalog.
func (m *Mapper) CoursesFromDTO(dtos []CourseDTO) []course.Course {
	courses := make([]course.Course, 0, len(dtos))
	for i := range dtos {
		c, err := m.CourseFromDTO(&dtos[i])
		if err != nil {
			continue
		}
		courses = append(courses, *c)
	}
	return courses
}

// BlocksFromDTO converts and orders a course's blocks by ordinal.
// Ordinals are unique per course and define the only valid unlock order.
func (m *Mapper) BlocksFromDTO(courseID string, dtos []BlockDTO) []course.Block {
	blocks := make([]course.Block, 0, len(dtos))
	for _, dto := range dtos {
		if dto.ID == "" {
			continue
		}
		b := course.Block{
			ID:       dto.ID,
			CourseID: dto.CourseID,
			Title:    dto.Title,
			Ordinal:  dto.Ordinal,
		}
		if b.CourseID == "" {
			b.CourseID = courseID
		}
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Ordinal < blocks[j].Ordinal })
	return blocks
}

// LessonsFromDTO converts and orders a block's lessons by ordinal.
func (m *Mapper) LessonsFromDTO(blockID string, dtos []LessonDTO) []course.Lesson {
	lessons := make([]course.Lesson, 0, len(dtos))
	for _, dto := range dtos {
		if dto.ID == "" {
			continue
		}
		l := course.Lesson{
			ID:          dto.ID,
			BlockID:     dto.BlockID,
			Title:       dto.Title,
			Description: dto.Description,
			Content:     dto.Content,
			Experience:  dto.Experience,
			Ordinal:     dto.Ordinal,
		}
		if l.BlockID == "" {
			l.BlockID = blockID
		}
		lessons = append(lessons, l)
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].Ordinal < lessons[j].Ordinal })
	return lessons
}

// TestFromDTO converts a TestDTO to a domain Test with its question order
// preserved. A nil DTO means the block has no test.
func (m *Mapper) TestFromDTO(blockID string, dto *TestDTO) *course.Test {
	if dto == nil || dto.ID == "" {
		return nil
	}
	t := course.Test{
		ID:          dto.ID,
		BlockID:     dto.BlockID,
		Title:       dto.Title,
		Description: dto.Description,
		Questions:   make([]course.Question, 0, len(dto.Questions)),
	}
	if t.BlockID == "" {
		t.BlockID = blockID
	}
	for _, q := range dto.Questions {
		t.Questions = append(t.Questions, m.questionFromDTO(q))
	}
	return &t
}

// QuestionsFromDTO converts a question list fetched separately from the test.
func (m *Mapper) QuestionsFromDTO(dtos []QuestionDTO) []course.Question {
	questions := make([]course.Question, 0, len(dtos))
	for _, dto := range dtos {
		questions = append(questions, m.questionFromDTO(dto))
	}
	return questions
}

func (m *Mapper) questionFromDTO(dto QuestionDTO) course.Question {
	q := course.Question{
		ID:      dto.ID,
		Title:   dto.Title,
		Answers: make([]course.Answer, 0, len(dto.Answers)),
	}
	for _, a := range dto.Answers {
		q.Answers = append(q.Answers, course.Answer{
			ID:          a.ID,
			Title:       a.Title,
			IsCorrect:   a.IsCorrect,
			Explanation: a.Explanation,
		})
	}
	return q
}

// ProfileFromDTO converts a UserDTO to the shared Profile value.
func (m *Mapper) ProfileFromDTO(dto *UserDTO) shared.Profile {
	if dto == nil {
		return shared.Profile{}
	}
	return shared.Profile{
		Identity:   m.IdentityFromDTO(dto),
		Experience: dto.Experience,
		Level:      dto.Level,
	}
}

// IdentityFromDTO converts a UserDTO to the shared Identity value.
func (m *Mapper) IdentityFromDTO(dto *UserDTO) shared.Identity {
	if dto == nil {
		return shared.Anonymous()
	}
	return shared.Identity{
		TelegramID: shared.TelegramID(dto.TelegramID),
		FirstName:  dto.FirstName,
		LastName:   dto.LastName,
		Username:   dto.Username,
	}
}
