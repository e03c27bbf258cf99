// Package learn implements the learning platform API client.
// This package handles all communication with the remote catalog/progress
// service: courses, blocks, lessons, tests, completion records, the wallet
// ledger and enrollments. The platform is the sole source of truth; this
// client never caches on its own.
package learn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/USamirjon/miniapp/internal/domain/course"
	"github.com/USamirjon/miniapp/internal/domain/shared"
	"github.com/USamirjon/miniapp/internal/domain/wallet"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the platform API client.
type ClientConfig struct {
	// BaseURL is the platform API base URL
	BaseURL string

	// APIKey is the API key for authentication (if applicable)
	APIKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting
	RateLimiterConfig RateLimiterConfig

	// CircuitBreakerConfig for fault tolerance
	CircuitBreakerConfig CircuitBreakerConfig

	// RetryConfig for retry behavior
	RetryConfig RetryConfig

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:              baseURL,
		Timeout:              30 * time.Second,
		RateLimiterConfig:    DefaultRateLimiterConfig(),
		CircuitBreakerConfig: DefaultCircuitBreakerConfig(),
		RetryConfig:          DefaultRetryConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the learning platform API client. It implements course.Catalog,
// progress.Service, wallet.Ledger and wallet.Enrollments.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreaker
	mapper         *Mapper
}

// NewClient creates a new platform API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:         config.Logger,
		rateLimiter:    NewRateLimiter(config.RateLimiterConfig),
		circuitBreaker: NewCircuitBreaker(config.CircuitBreakerConfig),
		mapper:         NewMapper(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Courses fetches the full course catalog.
func (c *Client) Courses(ctx context.Context) ([]course.Course, error) {
	var dtos []CourseDTO
	if err := c.doRequest(ctx, http.MethodGet, "/courses", nil, &dtos); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return c.mapper.CoursesFromDTO(dtos), nil
}

// Course fetches a single course by ID.
func (c *Client) Course(ctx context.Context, courseID string) (*course.Course, error) {
	params := url.Values{}
	params.Set("courseId", courseID)

	var dto CourseDTO
	if err := c.doRequest(ctx, http.MethodGet, "/course?"+params.Encode(), nil, &dto); err != nil {
		if isNotFound(err) {
			return nil, shared.ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course %s: %w", courseID, err)
	}
	return c.mapper.CourseFromDTO(&dto)
}

// Blocks fetches the ordered blocks of a course.
func (c *Client) Blocks(ctx context.Context, courseID string) ([]course.Block, error) {
	params := url.Values{}
	params.Set("courseId", courseID)

	var dtos []BlockDTO
	if err := c.doRequest(ctx, http.MethodGet, "/course-blocks?"+params.Encode(), nil, &dtos); err != nil {
		return nil, fmt.Errorf("get course blocks %s: %w", courseID, err)
	}
	return c.mapper.BlocksFromDTO(courseID, dtos), nil
}

// Lessons fetches the ordered lessons of a block.
func (c *Client) Lessons(ctx context.Context, blockID string) ([]course.Lesson, error) {
	params := url.Values{}
	params.Set("blockId", blockID)

	var dtos []LessonDTO
	if err := c.doRequest(ctx, http.MethodGet, "/block-lessons?"+params.Encode(), nil, &dtos); err != nil {
		return nil, fmt.Errorf("get block lessons %s: %w", blockID, err)
	}
	return c.mapper.LessonsFromDTO(blockID, dtos), nil
}

// BlockTest fetches the block's test. An empty response body means the block
// has no test; that is "no content", not an error.
func (c *Client) BlockTest(ctx context.Context, blockID string) (*course.Test, error) {
	params := url.Values{}
	params.Set("blockId", blockID)

	var dto *TestDTO
	if err := c.doRequest(ctx, http.MethodGet, "/block-test?"+params.Encode(), nil, &dto); err != nil {
		return nil, fmt.Errorf("get block test %s: %w", blockID, err)
	}
	return c.mapper.TestFromDTO(blockID, dto), nil
}

// Questions fetches the ordered question list for a test.
func (c *Client) Questions(ctx context.Context, testID string) ([]course.Question, error) {
	params := url.Values{}
	params.Set("testId", testID)

	var dtos []QuestionDTO
	if err := c.doRequest(ctx, http.MethodGet, "/questions?"+params.Encode(), nil, &dtos); err != nil {
		return nil, fmt.Errorf("get questions %s: %w", testID, err)
	}
	return c.mapper.QuestionsFromDTO(dtos), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS READ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// LessonComplete fetches the completion status of a lesson for a user.
func (c *Client) LessonComplete(ctx context.Context, user shared.TelegramID, lessonID string) (bool, error) {
	params := url.Values{}
	params.Set("telegramId", user.String())
	params.Set("lessonId", lessonID)

	var done bool
	if err := c.doRequest(ctx, http.MethodGet, "/lesson-status?"+params.Encode(), nil, &done); err != nil {
		return false, fmt.Errorf("get lesson status %s: %w", lessonID, err)
	}
	return done, nil
}

// TestComplete fetches the completion status of a test for a user.
func (c *Client) TestComplete(ctx context.Context, user shared.TelegramID, testID string) (bool, error) {
	params := url.Values{}
	params.Set("telegramId", user.String())
	params.Set("testId", testID)

	var done bool
	if err := c.doRequest(ctx, http.MethodGet, "/test-status?"+params.Encode(), nil, &done); err != nil {
		return false, fmt.Errorf("get test status %s: %w", testID, err)
	}
	return done, nil
}

// BlockFinished fetches whether a user finished a block. The platform answers
// in the inverted sense ("active" = not yet finished), so the result is negated
// here and never leaks the inverted meaning to callers.
func (c *Client) BlockFinished(ctx context.Context, user shared.TelegramID, blockID string) (bool, error) {
	params := url.Values{}
	params.Set("telegramId", user.String())
	params.Set("blockId", blockID)

	var active bool
	if err := c.doRequest(ctx, http.MethodGet, "/block-active?"+params.Encode(), nil, &active); err != nil {
		return false, fmt.Errorf("get block active %s: %w", blockID, err)
	}
	return !active, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS WRITE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// MarkLessonComplete marks a lesson complete for a user.
func (c *Client) MarkLessonComplete(ctx context.Context, user shared.TelegramID, lessonID string) error {
	body := LessonStatusRequestDTO{TelegramID: user.Int64(), LessonID: lessonID}
	if err := c.doRequest(ctx, http.MethodPost, "/lesson-status", body, nil); err != nil {
		return fmt.Errorf("mark lesson complete %s: %w", lessonID, err)
	}
	return nil
}

// SubmitTestResult records a quiz outcome for a user.
func (c *Client) SubmitTestResult(ctx context.Context, user shared.TelegramID, testID string, passed bool, percent int) error {
	body := TestResultRequestDTO{
		TelegramID:        user.Int64(),
		TestID:            testID,
		Passed:            passed,
		PercentageCorrect: percent,
	}
	if err := c.doRequest(ctx, http.MethodPost, "/test-result", body, nil); err != nil {
		return fmt.Errorf("submit test result %s: %w", testID, err)
	}
	return nil
}

// FinishBlock performs the idempotent block finalization. The server
// de-duplicates; finishing an already-finished block is a no-op.
func (c *Client) FinishBlock(ctx context.Context, user shared.TelegramID, blockID string) error {
	params := url.Values{}
	params.Set("blockId", blockID)
	params.Set("telegramId", user.String())

	if err := c.doRequest(ctx, http.MethodPatch, "/block-finish?"+params.Encode(), nil, nil); err != nil {
		return fmt.Errorf("finish block %s: %w", blockID, err)
	}
	return nil
}

// RecordVisit reports a lesson visit. Best-effort analytics: callers log
// failures and move on.
func (c *Client) RecordVisit(ctx context.Context, lessonID string) error {
	body := VisitRequestDTO{LessonID: lessonID}
	if err := c.doRequest(ctx, http.MethodPost, "/visit", body, nil); err != nil {
		return fmt.Errorf("record visit %s: %w", lessonID, err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// WALLET AND ENROLLMENT OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Balance fetches the user's wallet balance.
func (c *Client) Balance(ctx context.Context, user shared.TelegramID) (wallet.Balance, error) {
	params := url.Values{}
	params.Set("telegramId", user.String())

	var balance int
	if err := c.doRequest(ctx, http.MethodGet, "/wallet?"+params.Encode(), nil, &balance); err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return wallet.Balance(balance), nil
}

// Post records a signed wallet transaction (fire-and-wait).
func (c *Client) Post(ctx context.Context, tx wallet.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	body := WalletTransactionRequestDTO{
		TelegramID: tx.TelegramID.Int64(),
		Credit:     tx.Credit,
		Amount:     tx.Amount,
	}
	if err := c.doRequest(ctx, http.MethodPost, "/wallet-transaction", body, nil); err != nil {
		return fmt.Errorf("post wallet transaction: %w", err)
	}
	return nil
}

// Subscribe creates an enrollment of the user into the course.
func (c *Client) Subscribe(ctx context.Context, user shared.TelegramID, courseID string) error {
	body := EnrollmentRequestDTO{TelegramID: user.Int64(), CourseID: courseID}
	if err := c.doRequest(ctx, http.MethodPost, "/enrollment", body, nil); err != nil {
		return fmt.Errorf("subscribe to course %s: %w", courseID, err)
	}
	return nil
}

// Subscriptions fetches the IDs of courses the user is enrolled in.
func (c *Client) Subscriptions(ctx context.Context, user shared.TelegramID) ([]string, error) {
	params := url.Values{}
	params.Set("telegramId", user.String())

	var ids []string
	if err := c.doRequest(ctx, http.MethodGet, "/user-subscriptions?"+params.Encode(), nil, &ids); err != nil {
		return nil, fmt.Errorf("get subscriptions: %w", err)
	}
	return ids, nil
}

// Profile fetches the platform's profile view of a user.
func (c *Client) Profile(ctx context.Context, user shared.TelegramID) (shared.Profile, error) {
	params := url.Values{}
	params.Set("telegramId", user.String())

	var dto UserDTO
	if err := c.doRequest(ctx, http.MethodGet, "/user?"+params.Encode(), nil, &dto); err != nil {
		return shared.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return c.mapper.ProfileFromDTO(&dto), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs an HTTP request with rate limiting, circuit breaking, and retries.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	if err := c.circuitBreaker.Allow(); err != nil {
		return fmt.Errorf("circuit breaker: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.config.RetryConfig.CalculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.rateLimiter.Allow(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		err := c.doSingleRequest(ctx, method, path, body, result)
		if err == nil {
			c.circuitBreaker.RecordSuccess()
			return nil
		}

		lastErr = err

		if !c.isRetryable(err) {
			c.circuitBreaker.RecordFailure()
			return err
		}

		var rateLimitErr *RateLimitError
		if errors.As(err, &rateLimitErr) {
			c.rateLimiter.RecordRateLimitHit(rateLimitErr.RetryAfter)
		}
	}

	c.circuitBreaker.RecordFailure()
	return fmt.Errorf("request failed after %d retries: %w", c.config.RetryConfig.MaxRetries, lastErr)
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	fullURL := c.config.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	if c.config.Debug {
		c.logger.Debug("platform api request", "method", method, "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return &RateLimitError{
			RetryAfter: retryAfter,
			Message:    "rate limit exceeded",
		}
	}

	if resp.StatusCode >= 400 {
		var apiErr APIErrorDTO
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			apiErr.Status = resp.StatusCode
			return &apiErr
		}
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	// An empty 2xx body means "no content" (e.g. a block without a test);
	// the result keeps its zero value.
	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return shared.WrapError("learn", "Parse", shared.ErrExternalService, "unmarshal response", err)
		}
	}

	return nil
}

// isRetryable checks if an error is retryable.
func (c *Client) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var apiErr *APIErrorDTO
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}

	// Network errors are generally retryable
	errStr := err.Error()
	for _, sub := range []string{"timeout", "connection refused", "temporary", "reset", "EOF"} {
		if strings.Contains(errStr, sub) {
			return true
		}
	}
	return false
}

// isNotFound checks for a 404 response.
func isNotFound(err error) bool {
	var apiErr *APIErrorDTO
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusNotFound
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// IsHealthy checks if the platform API is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	err := c.doSingleRequest(ctx, http.MethodGet, "/health", nil, nil)
	return err == nil
}

// Reset resets the rate limiter and circuit breaker.
func (c *Client) Reset() {
	c.rateLimiter.Reset()
	c.circuitBreaker.Reset()
}
