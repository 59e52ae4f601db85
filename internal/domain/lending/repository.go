package lending

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderRepository persists orders. "Active" everywhere means the order's
// state is not terminal; terminal rows stay in history and are excluded from
// the active-order queries but still block order-id reuse.
type OrderRepository interface {
	// Create fails with shared.ErrDuplicateOrder when the order id exists
	// anywhere in history, terminal rows included.
	Create(ctx context.Context, order *Order) error
	FindActiveByChat(ctx context.Context, chatID int64) (*Order, error)
	FindByOrderID(ctx context.Context, orderID string) (*Order, error)
	// UpdateAmount and UpdateState act only on the chat's active order and
	// report false when no active row matched.
	UpdateAmount(ctx context.Context, chatID int64, amount decimal.Decimal) (bool, error)
	UpdateState(ctx context.Context, chatID int64, state OrderState) (bool, error)
	// NextOrderNumber draws from the sequence counter used for manually
	// numbered (non-coded) orders.
	NextOrderNumber(ctx context.Context) (string, error)

	FindByGroupID(ctx context.Context, groupID string, state *OrderState) ([]*Order, error)
	FindByState(ctx context.Context, state OrderState) ([]*Order, error)
	FindByDateRange(ctx context.Context, start, end time.Time) ([]*Order, error)
	FindAll(ctx context.Context) ([]*Order, error)
}

// LedgerRepository owns the three aggregation tables. Apply is the single
// entry point for counter mutations; routing every event through it is what
// keeps Global equal to the sum of the group rows.
type LedgerRepository interface {
	// Apply fans one event out to Global, the scoped group row (if any) and,
	// for daily-tracked events, the period rows. Rows referenced for the
	// first time are created and incremented in a single atomic upsert.
	Apply(ctx context.Context, scope LedgerScope, event EventName, amountDelta decimal.Decimal, countDelta int64, periodDate string) error
	// ApplyCashMovement records a net cash event: Global liquid_funds and the
	// period's liquid_flow always move together.
	ApplyCashMovement(ctx context.Context, delta decimal.Decimal, periodDate string) error

	GlobalSnapshot(ctx context.Context) (*LedgerSnapshot, error)
	GroupSnapshot(ctx context.Context, groupID string) (*LedgerSnapshot, error)
	ListGroupIDs(ctx context.Context) ([]string, error)
	// EnsureGroup creates a zero-initialized group row if none exists.
	EnsureGroup(ctx context.Context, groupID string) error
	// SumDailyRange sums daily rows over an inclusive period-date range.
	// An empty groupID selects the global rollup rows.
	SumDailyRange(ctx context.Context, start, end, groupID string) (*DailyFlow, error)
}

// ExpenseRecordRepository stores append-only expense entries.
type ExpenseRecordRepository interface {
	Create(ctx context.Context, record *ExpenseRecord) error
	ListByRange(ctx context.Context, category ExpenseCategory, start, end string) ([]*ExpenseRecord, error)
	// SumByRange returns the company and other totals over an inclusive range.
	SumByRange(ctx context.Context, start, end string) (company, other decimal.Decimal, err error)
}

// RepositoryContext groups the repositories participating in one unit of work.
type RepositoryContext interface {
	Orders() OrderRepository
	Ledger() LedgerRepository
	Expenses() ExpenseRecordRepository
}

// UnitOfWork runs a function with all repository writes in one transaction.
// The function either commits fully or leaves no trace; a commit failure after
// the function succeeded surfaces as a PARTIAL_WRITE domain error.
type UnitOfWork interface {
	RepositoryContext
	Execute(ctx context.Context, operation string, fn func(repos RepositoryContext) error) error
}
