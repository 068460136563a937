package main

import (
	"context"
	"fmt"
	"os"

	"star-burger/internal/config"
	"star-burger/internal/database"
)

// Prints the connected database and the row count of each table.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.Database, config.NewLogger(cfg.Logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to database: %s\n\n", dbName)

	tables := []string{"products", "restaurants", "restaurant_menu_items", "orders", "order_items", "addresses"}
	for _, table := range tables {
		var n int64
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			fmt.Printf("  - %-22s missing (run init-db)\n", table)
			continue
		}
		fmt.Printf("  - %-22s %d rows\n", table, n)
	}
}
