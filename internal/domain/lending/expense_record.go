package lending

import (
	"time"

	"github.com/google/uuid"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ExpenseRecord is a discrete dated expense entry. Expenses are append-only
// and never folded into running counters; queries sum them over a date range.
type ExpenseRecord struct {
	ID         uuid.UUID       `json:"id"`
	RecordDate string          `json:"record_date"`
	Category   ExpenseCategory `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewExpenseRecord creates a dated expense entry.
func NewExpenseRecord(recordDate string, category ExpenseCategory, amount decimal.Decimal, note string, now time.Time) (*ExpenseRecord, error) {
	if _, err := time.Parse(PeriodDateLayout, recordDate); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Record date must be formatted as "+PeriodDateLayout)
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Expense category is not valid")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}

	return &ExpenseRecord{
		ID:         uuid.New(),
		RecordDate: recordDate,
		Category:   category,
		Amount:     amount,
		Note:       note,
		CreatedAt:  now,
	}, nil
}
