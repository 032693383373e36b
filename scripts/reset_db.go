package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"malkhana-backend/internal/auth"
	"malkhana-backend/internal/config"
	"malkhana-backend/internal/db"
	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/repositories"
	"malkhana-backend/internal/services"
)

// Wipes every table of a development database and re-seeds the ADMIN account.
// Usage: SEED_ADMIN_PASSWORD=... go run ./scripts/reset_db.go
func main() {
	fmt.Println("========================================")
	fmt.Println("   Reset Database for Testing")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("WARNING: This will DELETE ALL DATA, including the custody ledger!")
	fmt.Println()
	fmt.Print("Type 'yes' to confirm: ")

	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" {
		fmt.Println("Reset cancelled.")
		return
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("SEED_ADMIN_PASSWORD must be set")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	// TRUNCATE bypasses the row-level append-only trigger on custody_transfers.
	tables := []string{
		"case_closures",
		"custody_transfers",
		"evidence_items",
		"incidents",
		"staff_members",
	}
	for _, table := range tables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			log.Fatalf("Failed to truncate %s: %v", table, err)
		}
		fmt.Printf("  - Cleared %s\n", table)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit transaction: %v", err)
	}

	zl, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpirationHours)
	staffService := services.NewStaffService(repositories.NewStaffRepository(pool), jwtManager, zl)
	if _, err := staffService.SeedAdmin(ctx, password); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	fmt.Println()
	fmt.Println("Database reset successful.")
	fmt.Printf("Admin badge: %s\n", services.SeedAdminBadge)
}
