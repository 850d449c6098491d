package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/damoang/angple-cms/internal/config"
	"github.com/damoang/angple-cms/internal/migration"
	"github.com/damoang/angple-cms/pkg/database"
	pkglogger "github.com/damoang/angple-cms/pkg/logger"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "configs/config.local.yaml", "config file path")
	dryRun := flag.Bool("dry-run", false, "list the tables that would be migrated")
	verify := flag.Bool("verify", false, "only check that tables and revision indexes exist")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	config.LoadDotEnv()
	pkglogger.InitStructured(os.Getenv("APP_ENV"))
	log := pkglogger.GetLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if *dryRun {
		for _, model := range migration.Models() {
			fmt.Printf("would migrate %T\n", model)
		}
		return
	}

	db, err := database.Open(database.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.GetDSN(),
		MaxIdleConns:    2,
		MaxOpenConns:    4,
		ConnMaxLifetime: time.Minute,
		LogQueries:      *verbose,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() { _ = database.Close(db) }()

	if !*verify {
		start := time.Now()
		if err := migration.Run(db); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		log.Info().Dur("took", time.Since(start)).Msg("migration complete")
	}

	if err := migration.Verify(db); err != nil {
		log.Fatal().Err(err).Msg("verification failed")
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("schema verified")
}
