package command

import (
	"context"
	"errors"
	"sync"

	"github.com/USamirjon/miniapp/internal/domain/course"
	"github.com/USamirjon/miniapp/internal/domain/shared"
	"github.com/USamirjon/miniapp/internal/domain/wallet"
)

type fakeCatalog struct {
	courses []course.Course
	blocks  []course.Block
	lessons []course.Lesson
	test    *course.Test
	testErr error
}

func (f *fakeCatalog) Courses(ctx context.Context) ([]course.Course, error) {
	return f.courses, nil
}

func (f *fakeCatalog) Course(ctx context.Context, courseID string) (*course.Course, error) {
	for i := range f.courses {
		if f.courses[i].ID == courseID {
			return &f.courses[i], nil
		}
	}
	return nil, shared.ErrCourseNotFound
}

func (f *fakeCatalog) Blocks(ctx context.Context, courseID string) ([]course.Block, error) {
	return f.blocks, nil
}

func (f *fakeCatalog) Lessons(ctx context.Context, blockID string) ([]course.Lesson, error) {
	return f.lessons, nil
}

func (f *fakeCatalog) BlockTest(ctx context.Context, blockID string) (*course.Test, error) {
	if f.testErr != nil {
		return nil, f.testErr
	}
	return f.test, nil
}

// fakeProgress implements progress.Service with scripted state.
type fakeProgress struct {
	mu         sync.Mutex
	lessonDone map[string]bool
	testDone   map[string]bool
	blockDone  map[string]bool

	markErr   error
	submitErr error
	finishErr error

	marked    []string
	submitted []string
	finished  []string
	visited   []string
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{
		lessonDone: make(map[string]bool),
		testDone:   make(map[string]bool),
		blockDone:  make(map[string]bool),
	}
}

func (f *fakeProgress) LessonComplete(ctx context.Context, user shared.TelegramID, lessonID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lessonDone[lessonID], nil
}

func (f *fakeProgress) TestComplete(ctx context.Context, user shared.TelegramID, testID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.testDone[testID], nil
}

func (f *fakeProgress) BlockFinished(ctx context.Context, user shared.TelegramID, blockID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blockDone[blockID], nil
}

func (f *fakeProgress) MarkLessonComplete(ctx context.Context, user shared.TelegramID, lessonID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.lessonDone[lessonID] = true
	f.marked = append(f.marked, lessonID)
	return nil
}

func (f *fakeProgress) SubmitTestResult(ctx context.Context, user shared.TelegramID, testID string, passed bool, percent int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.testDone[testID] = f.testDone[testID] || passed
	f.submitted = append(f.submitted, testID)
	return nil
}

func (f *fakeProgress) FinishBlock(ctx context.Context, user shared.TelegramID, blockID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finishErr != nil {
		return f.finishErr
	}
	f.blockDone[blockID] = true
	f.finished = append(f.finished, blockID)
	return nil
}

func (f *fakeProgress) RecordVisit(ctx context.Context, lessonID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visited = append(f.visited, lessonID)
	return nil
}

type fakeLedger struct {
	balance    wallet.Balance
	balanceErr error
	postErr    error
	posted     []wallet.Transaction
}

func (f *fakeLedger) Balance(ctx context.Context, user shared.TelegramID) (wallet.Balance, error) {
	if f.balanceErr != nil {
		return 0, f.balanceErr
	}
	return f.balance, nil
}

func (f *fakeLedger) Post(ctx context.Context, tx wallet.Transaction) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.posted = append(f.posted, tx)
	return nil
}

type fakeEnrollments struct {
	subscribeErr error
	subscribed   []string
}

func (f *fakeEnrollments) Subscribe(ctx context.Context, user shared.TelegramID, courseID string) error {
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.subscribed = append(f.subscribed, courseID)
	return nil
}

func (f *fakeEnrollments) Subscriptions(ctx context.Context, user shared.TelegramID) ([]string, error) {
	return f.subscribed, nil
}

// eventRecorder collects published events.
type eventRecorder struct {
	mu     sync.Mutex
	events []shared.Event
}

func (r *eventRecorder) Publish(event shared.Event) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *eventRecorder) types() []shared.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]shared.EventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.EventType())
	}
	return types
}

var errUnavailable = errors.New("platform unavailable")
