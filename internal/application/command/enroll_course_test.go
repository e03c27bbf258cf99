package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/USamirjon/miniapp/internal/domain/course"
	"github.com/USamirjon/miniapp/internal/domain/shared"
)

func enrollCatalog() *fakeCatalog {
	return &fakeCatalog{courses: []course.Course{
		{ID: "free", Title: "Введение", Price: 0},
		{ID: "paid", Title: "Go с нуля", Price: 1000, Discount: true, PriceWithDiscount: 700},
	}}
}

func TestEnrollCourse_Free(t *testing.T) {
	ledger := &fakeLedger{balance: 0}
	enrollments := &fakeEnrollments{}
	events := &eventRecorder{}

	h := NewEnrollCourseHandler(enrollCatalog(), ledger, enrollments, events, nil, nil)
	result, err := h.Handle(context.Background(), EnrollCourseCommand{User: 42, CourseID: "free"})
	require.NoError(t, err)

	assert.False(t, result.Purchased)
	assert.Equal(t, []string{"free"}, enrollments.subscribed)
	assert.Empty(t, ledger.posted, "free enrollment touches no ledger")
	assert.Contains(t, events.types(), shared.EventCourseEnrolled)
}

func TestEnrollCourse_PaidDebitsEffectivePrice(t *testing.T) {
	ledger := &fakeLedger{balance: 1000}
	enrollments := &fakeEnrollments{}
	events := &eventRecorder{}

	h := NewEnrollCourseHandler(enrollCatalog(), ledger, enrollments, events, nil, nil)
	result, err := h.Handle(context.Background(), EnrollCourseCommand{User: 42, CourseID: "paid"})
	require.NoError(t, err)

	require.Len(t, ledger.posted, 1)
	tx := ledger.posted[0]
	assert.False(t, tx.Credit, "purchase is a signed debit transaction")
	assert.Equal(t, 700, tx.Amount, "discounted price is charged")
	assert.Equal(t, shared.TelegramID(42), tx.TelegramID)

	assert.True(t, result.Purchased)
	assert.Equal(t, 700, result.PricePaid)
	assert.Equal(t, 300, result.RemainingBalance)
	assert.Equal(t, []string{"paid"}, enrollments.subscribed)
	assert.Contains(t, events.types(), shared.EventCoursePurchased)
	assert.Contains(t, events.types(), shared.EventWalletDebited)
}

func TestEnrollCourse_InsufficientFunds(t *testing.T) {
	ledger := &fakeLedger{balance: 699}
	enrollments := &fakeEnrollments{}

	h := NewEnrollCourseHandler(enrollCatalog(), ledger, enrollments, nil, nil, nil)
	_, err := h.Handle(context.Background(), EnrollCourseCommand{User: 42, CourseID: "paid"})

	assert.ErrorIs(t, err, shared.ErrInsufficientFunds)
	assert.Empty(t, ledger.posted, "no debit on insufficient funds")
	assert.Empty(t, enrollments.subscribed, "no subscription on insufficient funds")
}

func TestEnrollCourse_BalanceReadFailureFailsClosed(t *testing.T) {
	ledger := &fakeLedger{balance: 10000, balanceErr: errUnavailable}
	enrollments := &fakeEnrollments{}

	h := NewEnrollCourseHandler(enrollCatalog(), ledger, enrollments, nil, nil, nil)
	_, err := h.Handle(context.Background(), EnrollCourseCommand{User: 42, CourseID: "paid"})

	assert.ErrorIs(t, err, shared.ErrInsufficientFunds, "unknown balance reads as zero")
	assert.Empty(t, ledger.posted)
}

func TestEnrollCourse_SubscribeFailureAfterDebitSurfaces(t *testing.T) {
	ledger := &fakeLedger{balance: 1000}
	enrollments := &fakeEnrollments{subscribeErr: errUnavailable}

	h := NewEnrollCourseHandler(enrollCatalog(), ledger, enrollments, nil, nil, nil)
	_, err := h.Handle(context.Background(), EnrollCourseCommand{User: 42, CourseID: "paid"})

	require.Error(t, err)
	assert.Len(t, ledger.posted, 1, "the debit already went through")
}

func TestEnrollCourse_Anonymous(t *testing.T) {
	h := NewEnrollCourseHandler(enrollCatalog(), &fakeLedger{}, &fakeEnrollments{}, nil, nil, nil)
	_, err := h.Handle(context.Background(), EnrollCourseCommand{CourseID: "free"})
	assert.ErrorIs(t, err, shared.ErrAnonymous)
}

func TestEnrollCourse_UnknownCourse(t *testing.T) {
	h := NewEnrollCourseHandler(enrollCatalog(), &fakeLedger{}, &fakeEnrollments{}, nil, nil, nil)
	_, err := h.Handle(context.Background(), EnrollCourseCommand{User: 42, CourseID: "missing"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
