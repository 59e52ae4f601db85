package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loanbook/backend/internal/domain/lending"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/loanbook/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ledgerGlobalRowID is the fixed primary key of the single global row.
const ledgerGlobalRowID = 1

// GormLedgerRepository implements lending.LedgerRepository using GORM. Every
// counter mutation is a single upsert-and-increment statement so lazy row
// creation and the delta application are atomic under concurrency.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Apply fans one logical event out to the aggregation rows it belongs to:
// Global unconditionally, the group row when the scope names one, and the
// daily rows (global rollup plus group) only for daily-tracked events.
func (r *GormLedgerRepository) Apply(ctx context.Context, scope lending.LedgerScope, event lending.EventName, amountDelta decimal.Decimal, countDelta int64, periodDate string) error {
	if err := lending.ValidateEvent(event, amountDelta, countDelta); err != nil {
		return err
	}
	if amountDelta.IsZero() && countDelta == 0 {
		return nil
	}

	if event.StockTracked() {
		if err := r.incrementGlobal(ctx, event, amountDelta, countDelta); err != nil {
			return shared.NewLedgerWriteError(err)
		}
		if scope.GroupID != "" {
			if err := r.upsertGroup(ctx, scope.GroupID, event, amountDelta, countDelta); err != nil {
				return shared.NewLedgerWriteError(err)
			}
		}
	}

	if event.DailyTracked() {
		if periodDate == "" {
			return shared.NewDomainError("INVALID_INPUT", "Daily-tracked event requires a period date")
		}
		if err := r.upsertDaily(ctx, periodDate, "", event, amountDelta, countDelta); err != nil {
			return shared.NewLedgerWriteError(err)
		}
		if scope.GroupID != "" {
			if err := r.upsertDaily(ctx, periodDate, scope.GroupID, event, amountDelta, countDelta); err != nil {
				return shared.NewLedgerWriteError(err)
			}
		}
	}

	return nil
}

// ApplyCashMovement books a net cash event: the global balance and the
// period's flow always move together, for debits and credits alike.
func (r *GormLedgerRepository) ApplyCashMovement(ctx context.Context, delta decimal.Decimal, periodDate string) error {
	if delta.IsZero() {
		return nil
	}
	if err := r.Apply(ctx, lending.GlobalScope(), lending.EventLiquidFunds, delta, 0, periodDate); err != nil {
		return err
	}
	return r.Apply(ctx, lending.GlobalScope(), lending.EventLiquidFlow, delta, 0, periodDate)
}

func (r *GormLedgerRepository) incrementGlobal(ctx context.Context, event lending.EventName, amountDelta decimal.Decimal, countDelta int64) error {
	updates := incrementAssignments(event, amountDelta, countDelta)
	result := r.db.WithContext(ctx).Model(&models.LedgerGlobalModel{}).
		Where("id = ?", ledgerGlobalRowID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("global ledger row %d is missing; run migrations", ledgerGlobalRowID)
	}
	return nil
}

func (r *GormLedgerRepository) upsertGroup(ctx context.Context, groupID string, event lending.EventName, amountDelta decimal.Decimal, countDelta int64) error {
	values := map[string]interface{}{
		"group_id":   groupID,
		"updated_at": time.Now(),
	}
	insertDeltas(values, event, amountDelta, countDelta)

	return r.db.WithContext(ctx).Model(&models.LedgerGroupModel{}).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}},
			DoUpdates: clause.Assignments(incrementAssignments(event, amountDelta, countDelta)),
		}).
		Create(values).Error
}

func (r *GormLedgerRepository) upsertDaily(ctx context.Context, periodDate, groupID string, event lending.EventName, amountDelta decimal.Decimal, countDelta int64) error {
	values := map[string]interface{}{
		"period_date": periodDate,
		"group_id":    groupID,
		"updated_at":  time.Now(),
	}
	insertDeltas(values, event, amountDelta, countDelta)

	return r.db.WithContext(ctx).Model(&models.LedgerDailyModel{}).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "period_date"}, {Name: "group_id"}},
			DoUpdates: clause.Assignments(incrementAssignments(event, amountDelta, countDelta)),
		}).
		Create(values).Error
}

// insertDeltas sets the delta columns as initial values for the insert arm of
// an upsert; untouched counters take their schema defaults.
func insertDeltas(values map[string]interface{}, event lending.EventName, amountDelta decimal.Decimal, countDelta int64) {
	if !amountDelta.IsZero() {
		values[event.AmountColumn()] = amountDelta
	}
	if countDelta != 0 {
		values[event.CountColumn()] = countDelta
	}
}

// incrementAssignments builds the conflict-arm assignments col = col + delta.
func incrementAssignments(event lending.EventName, amountDelta decimal.Decimal, countDelta int64) map[string]interface{} {
	assignments := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if !amountDelta.IsZero() {
		col := event.AmountColumn()
		assignments[col] = gorm.Expr(col+" + ?", amountDelta)
	}
	if countDelta != 0 {
		col := event.CountColumn()
		assignments[col] = gorm.Expr(col+" + ?", countDelta)
	}
	return assignments
}

// GlobalSnapshot reads the single global aggregation row
func (r *GormLedgerRepository) GlobalSnapshot(ctx context.Context) (*lending.LedgerSnapshot, error) {
	var model models.LedgerGlobalModel
	if err := r.db.WithContext(ctx).
		Where("id = ?", ledgerGlobalRowID).
		First(&model).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// GroupSnapshot reads one group's aggregation row. Groups that were never
// attributed read back as all-zero snapshots.
func (r *GormLedgerRepository) GroupSnapshot(ctx context.Context, groupID string) (*lending.LedgerSnapshot, error) {
	var model models.LedgerGroupModel
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &lending.LedgerSnapshot{GroupID: groupID}, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListGroupIDs returns all attribution groups with a ledger row
func (r *GormLedgerRepository) ListGroupIDs(ctx context.Context) ([]string, error) {
	var groupIDs []string
	if err := r.db.WithContext(ctx).Model(&models.LedgerGroupModel{}).
		Order("group_id").
		Pluck("group_id", &groupIDs).Error; err != nil {
		return nil, err
	}
	return groupIDs, nil
}

// EnsureGroup creates a zero-initialized group row if none exists
func (r *GormLedgerRepository) EnsureGroup(ctx context.Context, groupID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}},
			DoNothing: true,
		}).
		Create(&models.LedgerGroupModel{GroupID: groupID}).Error
}

// SumDailyRange sums the daily flow rows over an inclusive period-date range.
// An empty groupID selects the global rollup rows.
func (r *GormLedgerRepository) SumDailyRange(ctx context.Context, start, end, groupID string) (*lending.DailyFlow, error) {
	var rows []models.LedgerDailyModel
	if err := r.db.WithContext(ctx).
		Where("period_date >= ? AND period_date <= ? AND group_id = ?", start, end, groupID).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	flow := &lending.DailyFlow{}
	for i := range rows {
		row := &rows[i]
		flow.LiquidFlow = flow.LiquidFlow.Add(row.LiquidFlow)
		flow.NewClients += row.NewClients
		flow.NewClientsAmount = flow.NewClientsAmount.Add(row.NewClientsAmount)
		flow.OldClients += row.OldClients
		flow.OldClientsAmount = flow.OldClientsAmount.Add(row.OldClientsAmount)
		flow.Interest = flow.Interest.Add(row.Interest)
		flow.CompletedOrders += row.CompletedOrders
		flow.CompletedAmount = flow.CompletedAmount.Add(row.CompletedAmount)
		flow.BreachOrders += row.BreachOrders
		flow.BreachAmount = flow.BreachAmount.Add(row.BreachAmount)
		flow.BreachEndOrders += row.BreachEndOrders
		flow.BreachEndAmount = flow.BreachEndAmount.Add(row.BreachEndAmount)
	}
	return flow, nil
}
