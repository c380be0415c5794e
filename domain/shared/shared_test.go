package shared_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace/domain/shared"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(v string) shared.Money {
	return shared.NewMoney(decimal.RequireFromString(v), "USD")
}

func TestMoneyArithmetic(t *testing.T) {
	sum, err := usd("10.10").Add(usd("0.20"))
	require.NoError(t, err)
	assert.True(t, sum.Equals(usd("10.30")))

	diff, err := usd("5").Subtract(usd("7.5"))
	require.NoError(t, err)
	assert.True(t, diff.IsNegative())
	assert.Equal(t, "-2.50 USD", diff.String())

	assert.True(t, usd("3.33").Multiply(3).Equals(usd("9.99")))
	assert.True(t, usd("1.005").Round(2).Equals(usd("1.01")))
	assert.True(t, usd("-1.005").Round(2).Equals(usd("-1.01")), "half rounds away from zero")

	_, err = usd("1").Add(shared.NewMoney(decimal.NewFromInt(1), "EUR"))
	assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)
	_, err = usd("1").Subtract(shared.ZeroMoney("EUR"))
	assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)

	assert.False(t, usd("1").Equals(shared.NewMoney(decimal.NewFromInt(1), "EUR")))
	assert.True(t, usd("2").IsGreaterThan(usd("1.99")))
	assert.True(t, usd("2").IsGreaterThanOrEqual(usd("2.00")))
	assert.True(t, shared.ZeroMoney("USD").IsZero())
}

type noteAdded struct {
	shared.EventMeta
	Text string `json:"text"`
}

func (noteAdded) EventName() string { return "note.added" }

func TestEventRecorderReturnsCopies(t *testing.T) {
	var r shared.EventRecorder
	assert.Nil(t, r.Pending())

	r.Record(noteAdded{EventMeta: shared.NewEventMeta("n-1"), Text: "a"})
	r.Record(noteAdded{EventMeta: shared.NewEventMeta("n-1"), Text: "b"})

	pending := r.Pending()
	require.Len(t, pending, 2)
	pending[0] = nil
	assert.NotNil(t, r.Pending()[0], "callers cannot rewrite the recorder")

	r.Clear()
	assert.Empty(t, r.Pending())
}

func TestValidateEvent(t *testing.T) {
	assert.NoError(t, shared.ValidateEvent(noteAdded{EventMeta: shared.NewEventMeta("n-1")}))
	assert.Error(t, shared.ValidateEvent(nil))
	assert.Error(t, shared.ValidateEvent(noteAdded{EventMeta: shared.EventMeta{OccurredAt: time.Now()}}))
	assert.Error(t, shared.ValidateEvent(noteAdded{EventMeta: shared.EventMeta{AggregateID: "n-1"}}))
}

func TestMetadataLifecycle(t *testing.T) {
	m := shared.NewMetadata("id-1")
	assert.True(t, m.IsNew())
	assert.Zero(t, m.Version())

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.MarkCreated(now)
	m.IncrementVersion()
	assert.False(t, m.IsNew())
	assert.Equal(t, now, m.UpdatedAt())
	assert.Equal(t, 1, m.Version())

	later := now.Add(time.Hour)
	m.MarkDeleted(later)
	assert.True(t, m.IsDeleted())
	require.NotNil(t, m.DeletedAt())
	assert.Equal(t, later, *m.DeletedAt())

	restored := shared.RestoreMetadata("id-1", 4, now, later, nil)
	assert.False(t, restored.IsDeleted())
	assert.Equal(t, 4, restored.Version())
}

func TestDomainErrors(t *testing.T) {
	err := shared.NewNotFoundError("order")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "order not found", err.Error())

	var stacker shared.Stacker
	require.True(t, errors.As(err, &stacker))
	assert.NotEmpty(t, stacker.Stack())

	cause := errors.New("coupon expired")
	wrapped := shared.WrapBusinessRule("coupon", "coupon cannot be applied", cause)
	assert.ErrorIs(t, wrapped, shared.ErrBusinessRule)
	assert.NotErrorIs(t, wrapped, cause)
	assert.Equal(t, "coupon cannot be applied: coupon expired", wrapped.Error())

	var wde *shared.DomainError
	require.True(t, errors.As(wrapped, &wde))
	assert.Same(t, cause, wde.Cause())

	// A wrapped conflict or lookup miss stays a business rule violation.
	conflict := shared.WrapBusinessRule("coupon", "failed to apply coupon", shared.NewConcurrencyConflictError("coupon", "c-1"))
	assert.ErrorIs(t, conflict, shared.ErrBusinessRule)
	assert.NotErrorIs(t, conflict, shared.ErrConcurrencyConflict)
	assert.False(t, shared.IsRetryable(conflict))
	assert.NotErrorIs(t, shared.WrapBusinessRule("coupon", "failed", shared.NewNotFoundError("coupon")), shared.ErrNotFound)

	var de *shared.DomainError
	require.True(t, errors.As(shared.NewValidationError("cart", "quantity", "must be positive"), &de))
	assert.Equal(t, "quantity", de.Field)
	assert.ErrorIs(t, de, shared.ErrInvalidInput)

	assert.True(t, shared.IsRetryable(shared.NewConcurrencyConflictError("product", "p-1")))
	assert.False(t, shared.IsRetryable(shared.NewBusinessRuleError("product", "out of stock")))
	assert.ErrorIs(t, shared.NewForbiddenError("order", "not yours"), shared.ErrForbidden)
}

func TestSpecificationComposition(t *testing.T) {
	even := shared.SpecFunc[int](func(_ context.Context, n int) bool { return n%2 == 0 })
	positive := shared.SpecFunc[int](func(_ context.Context, n int) bool { return n > 0 })
	ctx := context.Background()

	both := shared.And[int](even, positive)
	assert.True(t, both.IsSatisfiedBy(ctx, 4))
	assert.False(t, both.IsSatisfiedBy(ctx, -4))
	assert.True(t, shared.And[int]().IsSatisfiedBy(ctx, 7), "empty conjunction holds")

	either := shared.Or[int](even, positive)
	assert.True(t, either.IsSatisfiedBy(ctx, -2))
	assert.False(t, either.IsSatisfiedBy(ctx, -3))

	assert.True(t, shared.Not[int](even).IsSatisfiedBy(ctx, 3))
}

type fakeUoW struct {
	beginErr  error
	saveErr   error
	open      bool
	saved     int
	committed int
	rolled    int
}

func (u *fakeUoW) BeginTransaction(ctx context.Context) (context.Context, error) {
	if u.beginErr != nil {
		return nil, u.beginErr
	}
	u.open = true
	return ctx, nil
}

func (u *fakeUoW) SaveChanges(context.Context) (int64, error) {
	u.saved++
	return 1, u.saveErr
}

func (u *fakeUoW) CommitTransaction(context.Context) error {
	u.committed++
	u.open = false
	return nil
}

func (u *fakeUoW) RollbackTransaction(context.Context) error {
	if u.open {
		u.rolled++
	}
	u.open = false
	return nil
}

func (u *fakeUoW) InTransaction() bool { return u.open }

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("commits after save", func(t *testing.T) {
		uow := &fakeUoW{}
		require.NoError(t, shared.Execute(ctx, uow, func(context.Context) error { return nil }))
		assert.Equal(t, 1, uow.saved)
		assert.Equal(t, 1, uow.committed)
		assert.Zero(t, uow.rolled)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		uow := &fakeUoW{}
		boom := shared.NewBusinessRuleError("cart", "cart is empty")
		err := shared.Execute(ctx, uow, func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, uow.saved)
		assert.Equal(t, 1, uow.rolled)
	})

	t.Run("rolls back when save fails", func(t *testing.T) {
		uow := &fakeUoW{saveErr: shared.NewConcurrencyConflictError("product", "p-1")}
		err := shared.Execute(ctx, uow, func(context.Context) error { return nil })
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Zero(t, uow.committed)
		assert.Equal(t, 1, uow.rolled)
	})

	t.Run("rolls back and re-panics", func(t *testing.T) {
		uow := &fakeUoW{}
		assert.PanicsWithValue(t, "kaboom", func() {
			_ = shared.Execute(ctx, uow, func(context.Context) error { panic("kaboom") })
		})
		assert.Equal(t, 1, uow.rolled)
	})

	t.Run("begin failure skips fn", func(t *testing.T) {
		uow := &fakeUoW{beginErr: shared.ErrTransactionAlreadyOpen}
		called := false
		err := shared.Execute(ctx, uow, func(context.Context) error { called = true; return nil })
		assert.ErrorIs(t, err, shared.ErrTransactionAlreadyOpen)
		assert.False(t, called)
	})
}
