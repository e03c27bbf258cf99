package http

import (
	"encoding/json"
	"net/http"

	"github.com/USamirjon/miniapp/internal/application/command"
	"github.com/USamirjon/miniapp/internal/application/query"
	"github.com/USamirjon/miniapp/internal/domain/course"
	"github.com/USamirjon/miniapp/internal/domain/quiz"
	"github.com/USamirjon/miniapp/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR TRANSLATION
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps a domain error to an HTTP status and error code.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAnonymous(err):
		writeJSONError(w, http.StatusUnauthorized, "identity_required", "Sign in through Telegram to do this")
	case shared.IsInsufficientFunds(err):
		writeJSONError(w, http.StatusConflict, "insufficient_funds", "Wallet balance is lower than the course price")
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		writeJSONError(w, http.StatusBadGateway, "platform_unavailable", "The learning platform did not accept the request, try again")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON")
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	healthy := true
	if s.deps.Health != nil {
		healthy = s.deps.Health.IsHealthy(r.Context())
	}
	status := http.StatusOK
	text := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		text = "degraded"
	}
	writeJSON(w, status, map[string]interface{}{
		"status":   text,
		"platform": healthy,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG AND PROGRESSION READS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	courses, err := s.deps.Catalog.ListCourses(r.Context(), query.ListCoursesQuery{User: identity.TelegramID})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	detail, err := s.deps.Catalog.GetCourse(r.Context(), query.GetCourseQuery{
		User:     identity.TelegramID,
		CourseID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleCourseBlocks(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	blocks, err := s.deps.CourseBlocks.Handle(r.Context(), query.GetCourseBlocksQuery{
		User:     identity.TelegramID,
		CourseID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

func (s *Server) handleBlockContent(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	content, err := s.deps.BlockContent.Handle(r.Context(), query.GetBlockContentQuery{
		User:    identity.TelegramID,
		BlockID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

type questionDTO struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Answers []answerDTO `json:"answers"`
}

type answerDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation,omitempty"`
}

func (s *Server) handleTestQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.deps.Questions.Questions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questionsToDTO(questions))
}

func questionsToDTO(questions []course.Question) []questionDTO {
	result := make([]questionDTO, 0, len(questions))
	for _, q := range questions {
		dto := questionDTO{ID: q.ID, Title: q.Title}
		for _, a := range q.Answers {
			dto.Answers = append(dto.Answers, answerDTO{
				ID:          a.ID,
				Title:       a.Title,
				IsCorrect:   a.IsCorrect,
				Explanation: a.Explanation,
			})
		}
		result = append(result, dto)
	}
	return result
}

func (s *Server) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	balance := s.deps.Wallet.Balance(r.Context(), query.GetBalanceQuery{User: identity.TelegramID})
	writeJSON(w, http.StatusOK, balance)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	profile := s.deps.Profile.Handle(r.Context(), query.GetProfileQuery{Identity: identity})
	writeJSON(w, http.StatusOK, profile)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION WRITES
// ══════════════════════════════════════════════════════════════════════════════

type completeLessonRequest struct {
	CourseID   string `json:"courseId"`
	BlockID    string `json:"blockId"`
	Experience int    `json:"experience"`
}

func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	var req completeLessonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CompleteLesson.Handle(r.Context(), command.CompleteLessonCommand{
		User:          identity.TelegramID,
		CourseID:      req.CourseID,
		BlockID:       req.BlockID,
		LessonID:      r.PathValue("id"),
		Experience:    req.Experience,
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecordVisit(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	s.deps.RecordVisit.Handle(r.Context(), command.RecordVisitCommand{
		User:     identity.TelegramID,
		LessonID: r.PathValue("id"),
	})
	writeJSON(w, http.StatusAccepted, nil)
}

type submitTestRequest struct {
	CourseID string `json:"courseId"`
	BlockID  string `json:"blockId"`
	Score    int    `json:"score"`
	Total    int    `json:"total"`
}

func (s *Server) handleSubmitTestResult(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	var req submitTestRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// The verdict is derived here, with the engine's predicates, never
	// trusted from the frontend.
	result, err := s.deps.SubmitTest.Handle(r.Context(), command.SubmitTestResultCommand{
		User:     identity.TelegramID,
		CourseID: req.CourseID,
		Result: quiz.Result{
			TestID:  r.PathValue("id"),
			BlockID: req.BlockID,
			Score:   req.Score,
			Total:   req.Total,
			Passed:  quiz.Passed(req.Score, req.Total),
			Percent: quiz.PercentCorrect(req.Score, req.Total),
		},
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	result, err := s.deps.Enroll.Handle(r.Context(), command.EnrollCourseCommand{
		User:          identity.TelegramID,
		CourseID:      r.PathValue("id"),
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type topUpRequest struct {
	Amount int `json:"amount"`
}

func (s *Server) handleTopUp(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	var req topUpRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.TopUp.Handle(r.Context(), command.TopUpWalletCommand{
		User:          identity.TelegramID,
		Amount:        req.Amount,
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
