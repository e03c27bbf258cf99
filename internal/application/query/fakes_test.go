package query

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/USamirjon/miniapp/internal/domain/course"
	"github.com/USamirjon/miniapp/internal/domain/shared"
)

var errUnavailable = errors.New("platform unavailable")

type fakeCatalog struct {
	mu      sync.Mutex
	courses []course.Course
	blocks  []course.Block
	lessons []course.Lesson
	test    *course.Test
	err     error
	testErr error
	calls   map[string]int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{calls: make(map[string]int)}
}

func (f *fakeCatalog) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeCatalog) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeCatalog) Courses(ctx context.Context) ([]course.Course, error) {
	f.record("courses")
	return f.courses, f.err
}

func (f *fakeCatalog) Course(ctx context.Context, courseID string) (*course.Course, error) {
	f.record("course")
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.courses {
		if f.courses[i].ID == courseID {
			return &f.courses[i], nil
		}
	}
	return nil, shared.ErrCourseNotFound
}

func (f *fakeCatalog) Blocks(ctx context.Context, courseID string) ([]course.Block, error) {
	f.record("blocks")
	return f.blocks, f.err
}

func (f *fakeCatalog) Lessons(ctx context.Context, blockID string) ([]course.Lesson, error) {
	f.record("lessons")
	return f.lessons, f.err
}

func (f *fakeCatalog) BlockTest(ctx context.Context, blockID string) (*course.Test, error) {
	f.record("block_test")
	if f.testErr != nil {
		return nil, f.testErr
	}
	return f.test, nil
}

type fakeProgressReader struct {
	mu          sync.Mutex
	lessonDone  map[string]bool
	testDone    map[string]bool
	blockDone   map[string]bool
	failing     map[string]bool
	statusReads int
}

func newFakeProgressReader() *fakeProgressReader {
	return &fakeProgressReader{
		lessonDone: make(map[string]bool),
		testDone:   make(map[string]bool),
		blockDone:  make(map[string]bool),
		failing:    make(map[string]bool),
	}
}

func (f *fakeProgressReader) reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusReads
}

func (f *fakeProgressReader) read(id string, src map[string]bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusReads++
	if f.failing[id] {
		return false, errors.New("status read failed")
	}
	return src[id], nil
}

func (f *fakeProgressReader) LessonComplete(ctx context.Context, user shared.TelegramID, lessonID string) (bool, error) {
	return f.read(lessonID, f.lessonDone)
}

func (f *fakeProgressReader) TestComplete(ctx context.Context, user shared.TelegramID, testID string) (bool, error) {
	return f.read(testID, f.testDone)
}

func (f *fakeProgressReader) BlockFinished(ctx context.Context, user shared.TelegramID, blockID string) (bool, error) {
	return f.read(blockID, f.blockDone)
}

type fakeEnrollments struct {
	ids []string
	err error
}

func (f *fakeEnrollments) Subscriptions(ctx context.Context, user shared.TelegramID) ([]string, error) {
	return f.ids, f.err
}

var errMemCacheMiss = errors.New("memcache: miss")

// memCache is a map-backed Cache used instead of Redis in tests.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	raw, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return errMemCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.data, key)
	}
	c.mu.Unlock()
	return nil
}
