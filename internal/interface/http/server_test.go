package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/USamirjon/miniapp/internal/application/command"
	"github.com/USamirjon/miniapp/internal/application/query"
	"github.com/USamirjon/miniapp/internal/domain/course"
	"github.com/USamirjon/miniapp/internal/domain/shared"
	"github.com/USamirjon/miniapp/internal/domain/wallet"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUBS
// ══════════════════════════════════════════════════════════════════════════════

// stubVerifier treats "valid-init-data" as a signed-in user, an empty
// header as anonymous and anything else as tampered.
type stubVerifier struct{}

func (stubVerifier) Verify(initData string) (shared.Identity, error) {
	switch initData {
	case "":
		return shared.Anonymous(), nil
	case "valid-init-data":
		return shared.Identity{TelegramID: 123456, FirstName: "Ivan", Username: "ivan"}, nil
	default:
		return shared.Identity{}, errors.New("hash mismatch")
	}
}

// stubPlatform plays the learning platform for the whole surface:
// catalog, progress, ledger, enrollments, questions and health.
type stubPlatform struct {
	healthy   bool
	balance   wallet.Balance
	submitted []int
	finished  []string
}

func (p *stubPlatform) Courses(ctx context.Context) ([]course.Course, error) {
	return []course.Course{
		{ID: "go-basics", Title: "Go Basics", Price: 700},
		{ID: "intro", Title: "Intro", Price: 0},
	}, nil
}

func (p *stubPlatform) Course(ctx context.Context, courseID string) (*course.Course, error) {
	if courseID != "go-basics" {
		return nil, shared.ErrCourseNotFound
	}
	return &course.Course{ID: "go-basics", Title: "Go Basics", Price: 700}, nil
}

func (p *stubPlatform) Blocks(ctx context.Context, courseID string) ([]course.Block, error) {
	return []course.Block{{ID: "b1", CourseID: courseID, Title: "Block 1", Ordinal: 0}}, nil
}

func (p *stubPlatform) Lessons(ctx context.Context, blockID string) ([]course.Lesson, error) {
	return []course.Lesson{{ID: "l1", BlockID: blockID, Title: "Lesson 1", Experience: 10}}, nil
}

func (p *stubPlatform) BlockTest(ctx context.Context, blockID string) (*course.Test, error) {
	return &course.Test{ID: "t1", BlockID: blockID, Title: "Quiz"}, nil
}

func (p *stubPlatform) Questions(ctx context.Context, testID string) ([]course.Question, error) {
	return []course.Question{
		{ID: "q1", Title: "What does := do?", Answers: []course.Answer{
			{ID: "a1", Title: "Declares and assigns", IsCorrect: true},
			{ID: "a2", Title: "Compares"},
		}},
	}, nil
}

func (p *stubPlatform) LessonComplete(ctx context.Context, user shared.TelegramID, lessonID string) (bool, error) {
	return true, nil
}

func (p *stubPlatform) TestComplete(ctx context.Context, user shared.TelegramID, testID string) (bool, error) {
	return false, nil
}

func (p *stubPlatform) BlockFinished(ctx context.Context, user shared.TelegramID, blockID string) (bool, error) {
	return false, nil
}

func (p *stubPlatform) MarkLessonComplete(ctx context.Context, user shared.TelegramID, lessonID string) error {
	return nil
}

func (p *stubPlatform) SubmitTestResult(ctx context.Context, user shared.TelegramID, testID string, passed bool, percent int) error {
	p.submitted = append(p.submitted, percent)
	return nil
}

func (p *stubPlatform) FinishBlock(ctx context.Context, user shared.TelegramID, blockID string) error {
	p.finished = append(p.finished, blockID)
	return nil
}

func (p *stubPlatform) RecordVisit(ctx context.Context, lessonID string) error { return nil }

func (p *stubPlatform) Balance(ctx context.Context, user shared.TelegramID) (wallet.Balance, error) {
	return p.balance, nil
}

func (p *stubPlatform) Post(ctx context.Context, tx wallet.Transaction) error { return nil }

func (p *stubPlatform) Subscribe(ctx context.Context, user shared.TelegramID, courseID string) error {
	return nil
}

func (p *stubPlatform) Subscriptions(ctx context.Context, user shared.TelegramID) ([]string, error) {
	return nil, nil
}

func (p *stubPlatform) Profile(ctx context.Context, user shared.TelegramID) (shared.Profile, error) {
	return shared.Profile{Identity: shared.Identity{TelegramID: user, FirstName: "Ivan"}}, nil
}

func (p *stubPlatform) IsHealthy(ctx context.Context) bool { return p.healthy }

type nopEvents struct{}

func (nopEvents) Publish(event shared.Event) error { return nil }

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func newTestServer(platform *stubPlatform) *Server {
	evaluate := command.NewEvaluateBlockHandler(platform, platform, nopEvents{}, nil, nil)

	deps := Dependencies{
		Catalog:      query.NewCatalogHandler(platform, platform, nil, nil),
		CourseBlocks: query.NewCourseBlocksHandler(platform, platform, nil, nil),
		BlockContent: query.NewBlockContentHandler(platform, platform, nil, nil),
		Wallet:       query.NewWalletHandler(platform, nil, nil),
		Profile:      query.NewProfileHandler(platform, nil),

		CompleteLesson: command.NewCompleteLessonHandler(platform, evaluate, nopEvents{}, nil, nil),
		SubmitTest:     command.NewSubmitTestResultHandler(platform, evaluate, nopEvents{}, nil, nil),
		Enroll:         command.NewEnrollCourseHandler(platform, platform, platform, nopEvents{}, nil, nil),
		TopUp:          command.NewTopUpWalletHandler(platform, nopEvents{}, nil, nil),
		RecordVisit:    command.NewRecordVisitHandler(platform, nopEvents{}, nil),

		Verifier:  stubVerifier{},
		Questions: platform,
		Health:    platform,
	}
	return NewServer(DefaultConfig(), deps)
}

func doRequest(t *testing.T, s *Server, method, path, initData string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if initData != "" {
		req.Header.Set("X-Telegram-Init-Data", initData)
	}

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var envelope JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	platform := &stubPlatform{healthy: true}
	server := newTestServer(platform)

	rec := doRequest(t, server, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeEnvelope(t, rec).Success)

	platform.healthy = false
	rec = doRequest(t, server, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListCourses_Anonymous(t *testing.T) {
	server := newTestServer(&stubPlatform{healthy: true})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/courses", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)

	courses, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, courses, 2)
}

func TestAuth_TamperedInitDataRejected(t *testing.T) {
	server := newTestServer(&stubPlatform{healthy: true})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/courses", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "init_data_invalid", envelope.Error.Code)
}

func TestCompleteLesson_AnonymousRejected(t *testing.T) {
	server := newTestServer(&stubPlatform{healthy: true})

	rec := doRequest(t, server, http.MethodPost, "/api/v1/lessons/l1/complete", "", map[string]interface{}{
		"courseId": "go-basics",
		"blockId":  "b1",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "identity_required", envelope.Error.Code)
}

func TestSubmitTestResult_VerdictComputedServerSide(t *testing.T) {
	platform := &stubPlatform{healthy: true}
	server := newTestServer(platform)

	// 3 of 4 is a strict majority: passed, 75%.
	rec := doRequest(t, server, http.MethodPost, "/api/v1/tests/t1/result", "valid-init-data", map[string]interface{}{
		"courseId": "go-basics",
		"blockId":  "b1",
		"score":    3,
		"total":    4,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	result, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, result["Passed"])
	assert.Equal(t, float64(75), result["Percent"])

	require.Len(t, platform.submitted, 1)
	assert.Equal(t, 75, platform.submitted[0])

	// The pass satisfied the test requirement and every lesson is
	// complete, so the block finish write went through as well.
	assert.Contains(t, platform.finished, "b1")
}

func TestSubmitTestResult_RejectsBogusCounts(t *testing.T) {
	platform := &stubPlatform{healthy: true}
	server := newTestServer(platform)

	// -3 of -4 would derive an in-range percent; the raw counts are
	// rejected before anything reaches the platform.
	rec := doRequest(t, server, http.MethodPost, "/api/v1/tests/t1/result", "valid-init-data", map[string]interface{}{
		"courseId": "go-basics",
		"blockId":  "b1",
		"score":    -3,
		"total":    -4,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "validation_failed", envelope.Error.Code)
	assert.Empty(t, platform.submitted)
	assert.Empty(t, platform.finished)
}

func TestTopUp_RejectsNonPositiveAmount(t *testing.T) {
	server := newTestServer(&stubPlatform{healthy: true})

	rec := doRequest(t, server, http.MethodPost, "/api/v1/wallet/topup", "valid-init-data", map[string]interface{}{
		"amount": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "validation_failed", envelope.Error.Code)
}

func TestEnroll_InsufficientFundsConflict(t *testing.T) {
	server := newTestServer(&stubPlatform{healthy: true, balance: 100})

	rec := doRequest(t, server, http.MethodPost, "/api/v1/courses/go-basics/enroll", "valid-init-data", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "insufficient_funds", envelope.Error.Code)
}

func TestRequestIDHeaderAttached(t *testing.T) {
	server := newTestServer(&stubPlatform{healthy: true})

	rec := doRequest(t, server, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "trace-42")
	rec = httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, "trace-42", rec.Header().Get("X-Request-ID"))
}
