package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/travelbooking/catalog-api/internal/config"
	"github.com/travelbooking/catalog-api/internal/database"
)

// Child tables come first so the listing reads in dependency order.
var (
	bookingTables = []string{"reviews", "bookings"}
	catalogTables = []string{"packages", "attractions", "cities", "provinces", "countries"}
	accountTables = []string{"refresh_tokens", "users"}
)

func main() {
	var (
		dbURLFlag string
		keepUsers bool
		bookings  bool
		migrate   bool
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&keepUsers, "keep-users", false, "keep users and their refresh sessions")
	flag.BoolVar(&bookings, "bookings-only", false, "clear only bookings and reviews")
	flag.BoolVar(&migrate, "migrate", false, "apply the schema before clearing")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Secrets stay in .env instead of the command line.
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	})
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatalf("failed to migrate: %v", err)
		}
		logger.Info("Schema applied")
	}

	tables := targetTables(keepUsers, bookings)
	truncateSQL := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	if _, err := db.ExecContext(ctx, truncateSQL); err != nil {
		logger.Fatalf("failed to truncate tables: %v", err)
	}
	logger.WithField("tables", tables).Info("Tables truncated")

	for _, t := range tables {
		var count int
		if err := db.GetContext(ctx, &count, fmt.Sprintf("SELECT COUNT(*) FROM %s", t)); err != nil {
			logger.WithError(err).WithField("table", t).Warn("Count failed")
			continue
		}
		logger.WithFields(logrus.Fields{"table": t, "rows": count}).Info("Post-clear row count")
	}
}

func targetTables(keepUsers, bookingsOnly bool) []string {
	tables := append([]string{}, bookingTables...)
	if bookingsOnly {
		return tables
	}
	tables = append(tables, catalogTables...)
	if !keepUsers {
		tables = append(tables, accountTables...)
	}
	return tables
}
