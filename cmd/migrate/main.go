package main

import (
	"fmt"
	"os"

	"github.com/loanbook/backend/internal/infrastructure/config"
	"github.com/loanbook/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
)

// Runs schema migration and first-boot seeding without starting the server.
// Useful in deploy pipelines where the schema must be in place before the
// application instances roll.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to connect to database:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(decimal.NewFromFloat(cfg.Ledger.OpeningBalance)); err != nil {
		fmt.Fprintln(os.Stderr, "Migration failed:", err)
		os.Exit(1)
	}
	fmt.Println("Migration complete")
}
