package learn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/USamirjon/miniapp/internal/domain/shared"
	"github.com/USamirjon/miniapp/internal/domain/wallet"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig(srv.URL)
	cfg.Timeout = 2 * time.Second
	cfg.RetryConfig.MaxRetries = 0
	return NewClient(cfg)
}

func TestCoursesParsing(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/courses", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"c1","title":"Frontend на React","price":1000,"discount":true,"priceWithDiscount":700,"topic":"frontend"},
			{"id":"c2","title":"Go для начинающих","price":0}
		]`))
	})

	courses, err := client.Courses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)

	assert.Equal(t, "c1", courses[0].ID)
	assert.Equal(t, 700, courses[0].EffectivePrice())
	assert.True(t, courses[1].IsFree())
}

func TestBlocksOrderedByOrdinal(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "c1", r.URL.Query().Get("courseId"))
		_, _ = w.Write([]byte(`[
			{"id":"b2","title":"Блок 2","ordinal":1},
			{"id":"b1","title":"Блок 1","ordinal":0}
		]`))
	})

	blocks, err := client.Blocks(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "b1", blocks[0].ID)
	assert.Equal(t, "b2", blocks[1].ID)
	assert.Equal(t, "c1", blocks[0].CourseID, "course id inherited when the platform omits it")
}

func TestBlockTestEmptyBodyMeansNoTest(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	test, err := client.BlockTest(context.Background(), "b1")
	require.NoError(t, err, "no content is not an error")
	assert.Nil(t, test)
}

func TestBlockFinishedNegatesActiveFlag(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/block-active", r.URL.Path)
		// "true" = block is still active, i.e. not finished.
		_, _ = w.Write([]byte(`true`))
	})

	finished, err := client.BlockFinished(context.Background(), 42, "b1")
	require.NoError(t, err)
	assert.False(t, finished, "active block is not finished")
}

func TestMarkLessonCompleteBody(t *testing.T) {
	var got LessonStatusRequestDTO
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/lesson-status", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	err := client.MarkLessonComplete(context.Background(), 42, "l1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.TelegramID)
	assert.Equal(t, "l1", got.LessonID)
}

func TestFinishBlockUsesPatch(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/block-finish", r.URL.Path)
		assert.Equal(t, "b1", r.URL.Query().Get("blockId"))
		assert.Equal(t, "42", r.URL.Query().Get("telegramId"))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.FinishBlock(context.Background(), 42, "b1"))
}

func TestSubmitTestResultBody(t *testing.T) {
	var got TestResultRequestDTO
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	err := client.SubmitTestResult(context.Background(), 42, "t1", true, 75)
	require.NoError(t, err)
	assert.Equal(t, "t1", got.TestID)
	assert.True(t, got.Passed)
	assert.Equal(t, 75, got.PercentageCorrect)
}

func TestBalanceParsing(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`1500`))
	})

	balance, err := client.Balance(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, wallet.Balance(1500), balance)
	assert.True(t, balance.CanAfford(1500))
	assert.False(t, balance.CanAfford(1501))
}

func TestPostTransactionValidation(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request must reach the platform for an invalid transaction")
	})

	err := client.Post(context.Background(), wallet.Transaction{TelegramID: 42, Credit: true, Amount: 0})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	err = client.Post(context.Background(), wallet.Transaction{TelegramID: 0, Credit: true, Amount: 100})
	assert.ErrorIs(t, err, shared.ErrAnonymous)
}

func TestAPIErrorParsing(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"VALIDATION","message":"lesson id is required"}`))
	})

	err := client.MarkLessonComplete(context.Background(), 42, "")
	require.Error(t, err)

	var apiErr *APIErrorDTO
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VALIDATION", apiErr.Code)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestRetryOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
			return
		}
		_, _ = w.Write([]byte(`true`))
	}))
	defer srv.Close()

	cfg := DefaultClientConfig(srv.URL)
	cfg.RetryConfig = RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond}
	client := NewClient(cfg)

	done, err := client.LessonComplete(context.Background(), 42, "l1")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 2, attempts)
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute, MaxProbes: 1})

	require.NoError(t, cb.Allow())
	cb.RecordFailure()
	require.NoError(t, cb.Allow())
	cb.RecordFailure()

	assert.Equal(t, CircuitOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())
}
