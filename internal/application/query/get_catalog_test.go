package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/USamirjon/miniapp/internal/domain/course"
	"github.com/USamirjon/miniapp/internal/domain/shared"
)

func catalogCourses() []course.Course {
	return []course.Course{
		{ID: "c1", Title: "Go с нуля", Price: 1000, Discount: true, PriceWithDiscount: 700},
		{ID: "c2", Title: "Алгоритмы", Price: 500},
		{ID: "c3", Title: "Введение", Price: 0},
	}
}

func TestListCourses_EffectivePrices(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.courses = catalogCourses()

	h := NewCatalogHandler(catalog, &fakeEnrollments{}, nil, nil)
	courses, err := h.ListCourses(context.Background(), ListCoursesQuery{User: 42})
	require.NoError(t, err)
	require.Len(t, courses, 3)

	assert.Equal(t, 700, courses[0].EffectivePrice, "discounted price applies")
	assert.Equal(t, 1000, courses[0].Price)
	assert.Equal(t, 500, courses[1].EffectivePrice, "full price without discount")
	assert.True(t, courses[2].Free)
}

func TestListCourses_SubscribedMarking(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.courses = catalogCourses()

	h := NewCatalogHandler(catalog, &fakeEnrollments{ids: []string{"c2"}}, nil, nil)
	courses, err := h.ListCourses(context.Background(), ListCoursesQuery{User: 42})
	require.NoError(t, err)

	assert.False(t, courses[0].Subscribed)
	assert.True(t, courses[1].Subscribed)
}

func TestListCourses_SubscriptionFailureDegradesToNone(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.courses = catalogCourses()

	h := NewCatalogHandler(catalog, &fakeEnrollments{err: errors.New("unavailable")}, nil, nil)
	courses, err := h.ListCourses(context.Background(), ListCoursesQuery{User: 42})
	require.NoError(t, err, "subscription read failure must not break the catalog")

	for _, c := range courses {
		assert.False(t, c.Subscribed)
	}
}

func TestListCourses_CatalogServedFromCache(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.courses = catalogCourses()
	cache := newMemCache()

	h := NewCatalogHandler(catalog, &fakeEnrollments{}, cache, nil)
	_, err := h.ListCourses(context.Background(), ListCoursesQuery{})
	require.NoError(t, err)
	_, err = h.ListCourses(context.Background(), ListCoursesQuery{})
	require.NoError(t, err)

	assert.Equal(t, 1, catalog.callCount("courses"))
}

func TestGetCourse_Detail(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.courses = catalogCourses()

	h := NewCatalogHandler(catalog, &fakeEnrollments{}, nil, nil)
	detail, err := h.GetCourse(context.Background(), GetCourseQuery{User: 42, CourseID: "c1"})
	require.NoError(t, err)

	assert.Equal(t, "c1", detail.ID)
	assert.Equal(t, 700, detail.EffectivePrice)
	assert.Equal(t, 700, detail.PriceWithDiscount)
}

func TestGetCourse_NotFound(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.courses = catalogCourses()

	h := NewCatalogHandler(catalog, &fakeEnrollments{}, nil, nil)
	_, err := h.GetCourse(context.Background(), GetCourseQuery{User: 42, CourseID: "missing"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
