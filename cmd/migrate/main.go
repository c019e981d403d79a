package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/config"
	"github.com/smarttransit/carrier-reservations/internal/database"
)

func main() {
	var dbURLFlag string
	var timeout time.Duration
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.DurationVar(&timeout, "timeout", time.Minute, "maximum time to apply the schema")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	_ = godotenv.Load()

	dbCfg := config.LoadDatabase()
	if dbURLFlag != "" {
		dbCfg.URL = dbURLFlag
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Fatalf("Failed to apply schema: %v", err)
	}

	logger.WithField("tables", database.Tables).Info("Schema is up to date")
}
