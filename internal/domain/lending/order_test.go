package lending

import (
	"testing"
	"time"

	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCode(t *testing.T, title string) OrderCode {
	t.Helper()
	code, ok := ParseOrderCode(title)
	require.True(t, ok)
	return code
}

func TestOrderStateTransitions(t *testing.T) {
	cases := []struct {
		from    OrderState
		to      OrderState
		allowed bool
	}{
		{StateNormal, StateOverdue, true},
		{StateNormal, StateBreach, true},
		{StateNormal, StateEnd, true},
		{StateNormal, StateBreachEnd, false},
		{StateOverdue, StateNormal, true},
		{StateOverdue, StateBreach, true},
		{StateOverdue, StateEnd, true},
		{StateOverdue, StateBreachEnd, false},
		{StateBreach, StateNormal, true},
		{StateBreach, StateOverdue, true},
		{StateBreach, StateBreachEnd, true},
		{StateBreach, StateEnd, false},
		{StateEnd, StateNormal, false},
		{StateEnd, StateBreachEnd, false},
		{StateBreachEnd, StateBreach, false},
		{StateBreachEnd, StateEnd, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStateClassification(t *testing.T) {
	assert.True(t, StateEnd.IsTerminal())
	assert.True(t, StateBreachEnd.IsTerminal())
	assert.False(t, StateNormal.IsTerminal())
	assert.False(t, StateBreach.IsTerminal())

	assert.True(t, StateNormal.InValidPool())
	assert.True(t, StateOverdue.InValidPool())
	assert.False(t, StateBreach.InValidPool())
	assert.False(t, StateEnd.InValidPool())

	assert.False(t, OrderState("CANCELLED").IsValid())
}

func TestNewOrder(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC) // a Monday

	t.Run("creates order from decoded code", func(t *testing.T) {
		code := testCode(t, "A2511280105")
		order, err := NewOrder(code, 42, "S02", StateNormal, OriginManual, now)
		require.NoError(t, err)

		assert.Equal(t, "A2511280105", order.OrderID)
		assert.Equal(t, int64(42), order.ChatID)
		assert.Equal(t, "S02", order.GroupID)
		assert.Equal(t, WeekdayGroupMon, order.WeekdayGroup)
		assert.Equal(t, CustomerNew, order.Customer)
		assert.Equal(t, StateNormal, order.State)
		assert.True(t, order.IsActive())
		assert.False(t, order.IsHistorical())
	})

	t.Run("defaults the group when empty", func(t *testing.T) {
		order, err := NewOrder(testCode(t, "2511280105"), 42, "", StateNormal, OriginManual, now)
		require.NoError(t, err)
		assert.Equal(t, DefaultGroupID, order.GroupID)
	})

	t.Run("accepts breach as initial state", func(t *testing.T) {
		order, err := NewOrder(testCode(t, "2501100103"), 42, "S01", StateBreach, OriginHistorical, now)
		require.NoError(t, err)
		assert.Equal(t, StateBreach, order.State)
		assert.True(t, order.IsHistorical())
	})

	t.Run("rejects terminal initial state", func(t *testing.T) {
		_, err := NewOrder(testCode(t, "2511280105"), 42, "S01", StateEnd, OriginManual, now)
		assert.ErrorIs(t, err, shared.ErrWrongState)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		_, err := NewOrder(testCode(t, "2511280100"), 42, "S01", StateNormal, OriginManual, now)
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	t.Run("rejects zero chat id", func(t *testing.T) {
		_, err := NewOrder(testCode(t, "2511280105"), 0, "S01", StateNormal, OriginManual, now)
		require.Error(t, err)
	})
}

func TestOrderValidateReduction(t *testing.T) {
	now := time.Now()
	order, err := NewOrder(testCode(t, "2511280105"), 42, "S01", StateNormal, OriginManual, now)
	require.NoError(t, err)

	assert.NoError(t, order.ValidateReduction(decimal.NewFromInt(2000)))
	assert.NoError(t, order.ValidateReduction(decimal.NewFromInt(5000)))
	assert.ErrorIs(t, order.ValidateReduction(decimal.NewFromInt(5001)), shared.ErrInvalidAmount)
	assert.ErrorIs(t, order.ValidateReduction(decimal.Zero), shared.ErrInvalidAmount)
	assert.ErrorIs(t, order.ValidateReduction(decimal.NewFromInt(-100)), shared.ErrInvalidAmount)

	order.State = StateBreach
	assert.ErrorIs(t, order.ValidateReduction(decimal.NewFromInt(1000)), shared.ErrWrongState)
}

func TestOrderValidateSettlement(t *testing.T) {
	now := time.Now()
	order, err := NewOrder(testCode(t, "2511280105"), 42, "S01", StateBreach, OriginManual, now)
	require.NoError(t, err)

	assert.NoError(t, order.ValidateSettlement(decimal.NewFromInt(3000)))
	assert.NoError(t, order.ValidateSettlement(decimal.NewFromInt(5000)))
	assert.ErrorIs(t, order.ValidateSettlement(decimal.NewFromInt(6000)), shared.ErrInvalidAmount)
	assert.ErrorIs(t, order.ValidateSettlement(decimal.Zero), shared.ErrInvalidAmount)

	order.State = StateNormal
	assert.ErrorIs(t, order.ValidateSettlement(decimal.NewFromInt(1000)), shared.ErrWrongState)
}

func TestWeekdayGroupFor(t *testing.T) {
	assert.Equal(t, WeekdayGroupMon, WeekdayGroupFor(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, WeekdayGroupSun, WeekdayGroupFor(time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)))
}
