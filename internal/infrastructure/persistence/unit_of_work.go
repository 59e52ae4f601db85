package persistence

import (
	"context"

	"github.com/loanbook/backend/internal/domain/lending"
	"github.com/loanbook/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// repositoryContext binds the lending repositories to one gorm handle, which
// is either the base connection or an open transaction.
type repositoryContext struct {
	orders   *GormOrderRepository
	ledger   *GormLedgerRepository
	expenses *GormExpenseRecordRepository
}

func newRepositoryContext(db *gorm.DB) repositoryContext {
	return repositoryContext{
		orders:   NewGormOrderRepository(db),
		ledger:   NewGormLedgerRepository(db),
		expenses: NewGormExpenseRecordRepository(db),
	}
}

// Orders returns the order repository
func (c repositoryContext) Orders() lending.OrderRepository { return c.orders }

// Ledger returns the ledger repository
func (c repositoryContext) Ledger() lending.LedgerRepository { return c.ledger }

// Expenses returns the expense record repository
func (c repositoryContext) Expenses() lending.ExpenseRecordRepository { return c.expenses }

// GormUnitOfWork implements lending.UnitOfWork over a gorm connection.
// Reads outside Execute go straight to the base connection; Execute wraps all
// writes of one command in a single database transaction so the order row and
// the ledger rows it implies commit or roll back together.
type GormUnitOfWork struct {
	db *gorm.DB
	repositoryContext
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{
		db:                db,
		repositoryContext: newRepositoryContext(db),
	}
}

// Execute runs fn with transaction-bound repositories. An error from fn rolls
// everything back and is returned verbatim, so validation failures leave no
// partial writes. A commit failure after fn succeeded is reported as a
// PARTIAL_WRITE error naming the compensation the caller owes.
func (u *GormUnitOfWork) Execute(ctx context.Context, operation string, fn func(repos lending.RepositoryContext) error) error {
	var fnErr error
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(newRepositoryContext(tx))
		return fnErr
	})
	if err == nil {
		return nil
	}
	if fnErr != nil {
		return fnErr
	}
	return shared.NewPartialWriteError(operation, "re-read the chat's order and ledger rows; replay the command if the writes are absent", err)
}
