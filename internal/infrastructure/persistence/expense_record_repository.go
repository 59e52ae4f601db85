package persistence

import (
	"context"

	"github.com/loanbook/backend/internal/domain/lending"
	"github.com/loanbook/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormExpenseRecordRepository implements lending.ExpenseRecordRepository
// using GORM. Entries are append-only; there is no update or delete path.
type GormExpenseRecordRepository struct {
	db *gorm.DB
}

// NewGormExpenseRecordRepository creates a new GormExpenseRecordRepository
func NewGormExpenseRecordRepository(db *gorm.DB) *GormExpenseRecordRepository {
	return &GormExpenseRecordRepository{db: db}
}

// Create appends a new expense entry
func (r *GormExpenseRecordRepository) Create(ctx context.Context, record *lending.ExpenseRecord) error {
	return r.db.WithContext(ctx).Create(models.ExpenseRecordModelFromDomain(record)).Error
}

// ListByRange returns one category's entries over an inclusive date range,
// most recent first
func (r *GormExpenseRecordRepository) ListByRange(ctx context.Context, category lending.ExpenseCategory, start, end string) ([]*lending.ExpenseRecord, error) {
	var recordModels []models.ExpenseRecordModel
	if err := r.db.WithContext(ctx).
		Where("category = ? AND record_date >= ? AND record_date <= ?", string(category), start, end).
		Order("record_date DESC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	records := make([]*lending.ExpenseRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, nil
}

// SumByRange totals company and other expenses over an inclusive date range
func (r *GormExpenseRecordRepository) SumByRange(ctx context.Context, start, end string) (decimal.Decimal, decimal.Decimal, error) {
	var recordModels []models.ExpenseRecordModel
	if err := r.db.WithContext(ctx).
		Where("record_date >= ? AND record_date <= ?", start, end).
		Find(&recordModels).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	company, other := decimal.Zero, decimal.Zero
	for i := range recordModels {
		switch lending.ExpenseCategory(recordModels[i].Category) {
		case lending.ExpenseCompany:
			company = company.Add(recordModels[i].Amount)
		case lending.ExpenseOther:
			other = other.Add(recordModels[i].Amount)
		}
	}
	return company, other, nil
}
