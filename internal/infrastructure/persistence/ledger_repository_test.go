package persistence

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/loanbook/backend/internal/domain/lending"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var openingBalance = decimal.NewFromInt(100000)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db, openingBalance))
	return db
}

func TestGormLedgerRepository_Apply(t *testing.T) {
	ctx := context.Background()
	amount := decimal.NewFromInt(5000)

	t.Run("updates global and group stock together", func(t *testing.T) {
		repo := NewGormLedgerRepository(setupLedgerTestDB(t))

		err := repo.Apply(ctx, lending.GroupScope("S01"), lending.EventValid, amount, 1, "")
		require.NoError(t, err)

		global, err := repo.GlobalSnapshot(ctx)
		require.NoError(t, err)
		assert.True(t, global.ValidAmount.Equal(amount))
		assert.Equal(t, int64(1), global.ValidOrders)

		group, err := repo.GroupSnapshot(ctx, "S01")
		require.NoError(t, err)
		assert.True(t, group.ValidAmount.Equal(amount))
		assert.Equal(t, int64(1), group.ValidOrders)
	})

	t.Run("repeated events accumulate on the same rows", func(t *testing.T) {
		repo := NewGormLedgerRepository(setupLedgerTestDB(t))

		for i := 0; i < 3; i++ {
			require.NoError(t, repo.Apply(ctx, lending.GroupScope("S01"), lending.EventValid, amount, 1, ""))
		}

		group, err := repo.GroupSnapshot(ctx, "S01")
		require.NoError(t, err)
		assert.True(t, group.ValidAmount.Equal(decimal.NewFromInt(15000)))
		assert.Equal(t, int64(3), group.ValidOrders)
	})

	t.Run("global equals the sum of group rows", func(t *testing.T) {
		repo := NewGormLedgerRepository(setupLedgerTestDB(t))

		require.NoError(t, repo.Apply(ctx, lending.GroupScope("S01"), lending.EventValid, decimal.NewFromInt(5000), 1, ""))
		require.NoError(t, repo.Apply(ctx, lending.GroupScope("S02"), lending.EventValid, decimal.NewFromInt(8000), 1, ""))
		require.NoError(t, repo.Apply(ctx, lending.GroupScope("S02"), lending.EventValid, decimal.NewFromInt(3000).Neg(), 0, ""))

		global, err := repo.GlobalSnapshot(ctx)
		require.NoError(t, err)

		sum := decimal.Zero
		ids, err := repo.ListGroupIDs(ctx)
		require.NoError(t, err)
		for _, id := range ids {
			group, err := repo.GroupSnapshot(ctx, id)
			require.NoError(t, err)
			sum = sum.Add(group.ValidAmount)
		}
		assert.True(t, global.ValidAmount.Equal(sum))
	})

	t.Run("daily events write the global rollup and the group row", func(t *testing.T) {
		repo := NewGormLedgerRepository(setupLedgerTestDB(t))

		err := repo.Apply(ctx, lending.GroupScope("S01"), lending.EventNewClients, amount, 1, "2025-12-01")
		require.NoError(t, err)

		rollup, err := repo.SumDailyRange(ctx, "2025-12-01", "2025-12-01", "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), rollup.NewClients)
		assert.True(t, rollup.NewClientsAmount.Equal(amount))

		group, err := repo.SumDailyRange(ctx, "2025-12-01", "2025-12-01", "S01")
		require.NoError(t, err)
		assert.Equal(t, int64(1), group.NewClients)

		other, err := repo.SumDailyRange(ctx, "2025-12-01", "2025-12-01", "S02")
		require.NoError(t, err)
		assert.Equal(t, int64(0), other.NewClients)
	})

	t.Run("valid events never touch the daily ledger", func(t *testing.T) {
		repo := NewGormLedgerRepository(setupLedgerTestDB(t))

		require.NoError(t, repo.Apply(ctx, lending.GroupScope("S01"), lending.EventValid, amount, 1, "2025-12-01"))

		flow, err := repo.SumDailyRange(ctx, "2025-12-01", "2025-12-01", "")
		require.NoError(t, err)
		assert.True(t, flow.LiquidFlow.IsZero())
		assert.Equal(t, int64(0), flow.NewClients)
	})

	t.Run("daily event without a period date is rejected", func(t *testing.T) {
		repo := NewGormLedgerRepository(setupLedgerTestDB(t))

		err := repo.Apply(ctx, lending.GroupScope("S01"), lending.EventInterest, amount, 0, "")
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})

	t.Run("rejects unknown events and countless count deltas", func(t *testing.T) {
		repo := NewGormLedgerRepository(setupLedgerTestDB(t))

		assert.Error(t, repo.Apply(ctx, lending.GlobalScope(), lending.EventName("profit"), amount, 0, "2025-12-01"))
		assert.Error(t, repo.Apply(ctx, lending.GlobalScope(), lending.EventInterest, amount, 1, "2025-12-01"))
	})

	t.Run("zero deltas are a no-op", func(t *testing.T) {
		repo := NewGormLedgerRepository(setupLedgerTestDB(t))

		require.NoError(t, repo.Apply(ctx, lending.GroupScope("S01"), lending.EventValid, decimal.Zero, 0, ""))

		ids, err := repo.ListGroupIDs(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestGormLedgerRepository_ApplyCashMovement(t *testing.T) {
	ctx := context.Background()

	t.Run("balance and daily flow move together", func(t *testing.T) {
		repo := NewGormLedgerRepository(setupLedgerTestDB(t))

		debit := decimal.NewFromInt(5000).Neg()
		require.NoError(t, repo.ApplyCashMovement(ctx, debit, "2025-12-01"))

		global, err := repo.GlobalSnapshot(ctx)
		require.NoError(t, err)
		assert.True(t, global.LiquidFunds.Equal(decimal.NewFromInt(95000)))

		flow, err := repo.SumDailyRange(ctx, "2025-12-01", "2025-12-01", "")
		require.NoError(t, err)
		assert.True(t, flow.LiquidFlow.Equal(debit))
	})

	t.Run("credit restores the balance and nets the flow", func(t *testing.T) {
		repo := NewGormLedgerRepository(setupLedgerTestDB(t))

		require.NoError(t, repo.ApplyCashMovement(ctx, decimal.NewFromInt(5000).Neg(), "2025-12-01"))
		require.NoError(t, repo.ApplyCashMovement(ctx, decimal.NewFromInt(5000), "2025-12-01"))

		global, err := repo.GlobalSnapshot(ctx)
		require.NoError(t, err)
		assert.True(t, global.LiquidFunds.Equal(openingBalance))

		flow, err := repo.SumDailyRange(ctx, "2025-12-01", "2025-12-01", "")
		require.NoError(t, err)
		assert.True(t, flow.LiquidFlow.IsZero())
	})
}

func TestGormLedgerRepository_Groups(t *testing.T) {
	ctx := context.Background()
	repo := NewGormLedgerRepository(setupLedgerTestDB(t))

	t.Run("unknown group reads back zeroed", func(t *testing.T) {
		snapshot, err := repo.GroupSnapshot(ctx, "S09")
		require.NoError(t, err)
		assert.Equal(t, "S09", snapshot.GroupID)
		assert.True(t, snapshot.ValidAmount.IsZero())
		assert.Equal(t, int64(0), snapshot.ValidOrders)
	})

	t.Run("ensure group is idempotent and listed in order", func(t *testing.T) {
		require.NoError(t, repo.EnsureGroup(ctx, "S02"))
		require.NoError(t, repo.EnsureGroup(ctx, "S01"))
		require.NoError(t, repo.EnsureGroup(ctx, "S01"))

		ids, err := repo.ListGroupIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"S01", "S02"}, ids)
	})
}

func TestGormLedgerRepository_SumDailyRange(t *testing.T) {
	ctx := context.Background()
	repo := NewGormLedgerRepository(setupLedgerTestDB(t))

	require.NoError(t, repo.Apply(ctx, lending.GroupScope("S01"), lending.EventInterest, decimal.NewFromInt(100), 0, "2025-12-01"))
	require.NoError(t, repo.Apply(ctx, lending.GroupScope("S01"), lending.EventInterest, decimal.NewFromInt(200), 0, "2025-12-02"))
	require.NoError(t, repo.Apply(ctx, lending.GroupScope("S01"), lending.EventInterest, decimal.NewFromInt(400), 0, "2025-12-05"))

	flow, err := repo.SumDailyRange(ctx, "2025-12-01", "2025-12-02", "")
	require.NoError(t, err)
	assert.True(t, flow.Interest.Equal(decimal.NewFromInt(300)))

	flow, err = repo.SumDailyRange(ctx, "2025-12-01", "2025-12-31", "S01")
	require.NoError(t, err)
	assert.True(t, flow.Interest.Equal(decimal.NewFromInt(700)))

	flow, err = repo.SumDailyRange(ctx, "2026-01-01", "2026-01-31", "")
	require.NoError(t, err)
	assert.True(t, flow.Interest.IsZero())
}

// newMockLedgerRepository creates a GormLedgerRepository with a mocked SQL connection
func newMockLedgerRepository(t *testing.T) (*GormLedgerRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormLedgerRepository(gormDB), mock, mockDB
}

func TestGormLedgerRepository_ApplyStorageFailure(t *testing.T) {
	repo, mock, mockDB := newMockLedgerRepository(t)
	defer mockDB.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "ledger_global" SET`)).
		WillReturnError(errors.New("connection reset"))

	err := repo.Apply(context.Background(), lending.GroupScope("S01"), lending.EventValid, decimal.NewFromInt(5000), 1, "")
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "LEDGER_WRITE_FAILED", domainErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
