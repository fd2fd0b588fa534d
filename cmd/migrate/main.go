package main

import (
	"context"
	"log"
	"os"
	"time"

	"goethos/adapters/postgres"
	"goethos/internal/container"
	"goethos/internal/logging"
	"goethos/internal/migration"
	"goethos/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// migrate creates the survey schema and loads responses exported from the
// survey application into it.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [responses_file]")
	}

	databaseURL := os.Args[1]

	logger, err := logging.New("info", "console")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	logger.Info("schema up to date", zap.String("version", runner.Version()))

	if len(os.Args) < 3 {
		return
	}
	file := os.Args[2]

	reader, err := container.OpenResponseFile(file, "", logger)
	if err != nil {
		logger.Fatal("failed to open responses", zap.String("file", file), zap.Error(err))
	}
	sessions, err := reader.ListSessions(ctx, 0)
	if err != nil {
		logger.Fatal("failed to list sessions", zap.Error(err))
	}

	repo := postgres.NewResponseRepository(db)
	imported := 0
	for _, id := range sessions {
		responses, err := reader.SessionResponses(ctx, id, ports.ResponseFilters{})
		if err != nil {
			logger.Fatal("failed to read session", zap.Stringer("session_id", id), zap.Error(err))
		}
		n, err := repo.ImportResponses(ctx, responses)
		if err != nil {
			logger.Fatal("failed to import session", zap.Stringer("session_id", id), zap.Error(err))
		}
		imported += n
	}

	logger.Info("import complete",
		zap.String("file", file),
		zap.Int("sessions", len(sessions)),
		zap.Int("responses_inserted", imported))
}
