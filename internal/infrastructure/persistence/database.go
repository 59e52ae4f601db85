package persistence

import (
	"fmt"
	"time"

	"github.com/loanbook/backend/internal/infrastructure/config"
	"github.com/loanbook/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// NewDatabase creates a new database connection with the given configuration
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	return newDatabaseWithLogLevel(cfg, logger.Silent)
}

// NewDatabaseWithLogger creates a new database connection with custom logger settings
func NewDatabaseWithLogger(cfg *config.DatabaseConfig, logLevel logger.LogLevel) (*Database, error) {
	return newDatabaseWithLogLevel(cfg, logLevel)
}

func newDatabaseWithLogLevel(cfg *config.DatabaseConfig, logLevel logger.LogLevel) (*Database, error) {
	dsn := cfg.DSN()
	gormLogger := logger.Default.LogMode(logLevel)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Transaction executes a function within a database transaction
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	return d.DB.Transaction(fn)
}

// Migrate creates or updates the schema and seeds the singleton rows the
// ledger relies on: the global aggregation row (with the opening balance on
// first boot) and the order-number sequence.
func (d *Database) Migrate(openingBalance decimal.Decimal) error {
	return Migrate(d.DB, openingBalance)
}

// Migrate runs schema migration and seeding against an existing connection.
// Split out so tests can run it on an in-memory database.
func Migrate(db *gorm.DB, openingBalance decimal.Decimal) error {
	if err := db.AutoMigrate(
		&models.OrderModel{},
		&models.LedgerGlobalModel{},
		&models.LedgerGroupModel{},
		&models.LedgerDailyModel{},
		&models.ExpenseRecordModel{},
		&models.OrderSequenceModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	var globalCount int64
	if err := db.Model(&models.LedgerGlobalModel{}).Count(&globalCount).Error; err != nil {
		return fmt.Errorf("failed to check ledger seed: %w", err)
	}
	if globalCount == 0 {
		seed := &models.LedgerGlobalModel{ID: ledgerGlobalRowID}
		seed.LiquidFunds = openingBalance
		if err := db.Create(seed).Error; err != nil {
			return fmt.Errorf("failed to seed global ledger row: %w", err)
		}
	}

	var seqCount int64
	if err := db.Model(&models.OrderSequenceModel{}).Count(&seqCount).Error; err != nil {
		return fmt.Errorf("failed to check order sequence seed: %w", err)
	}
	if seqCount == 0 {
		if err := db.Create(&models.OrderSequenceModel{ID: orderSequenceRowID}).Error; err != nil {
			return fmt.Errorf("failed to seed order sequence: %w", err)
		}
	}

	return nil
}
