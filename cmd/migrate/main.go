package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"rental-location/internal/config"
	"rental-location/internal/database"
	"rental-location/internal/database/migrations"
	"rental-location/internal/logger"
	"rental-location/internal/models"
	"rental-location/internal/rentals/db"
	"rental-location/internal/utils"
	"rental-location/internal/zones"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func main() {
	down := flag.Bool("down", false, "roll back all migrations")
	schemaOnly := flag.Bool("schema-only", false, "skip seed migrations")
	demo := flag.Bool("demo", false, "insert sample rental logs for today")
	status := flag.Bool("status", false, "print the schema version and exit")
	flag.Parse()

	cfg, _ := config.Load()
	log := logger.NewLogger(cfg.Log.Dir)
	defer log.Close()

	ctx := context.Background()
	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if cfg.Database.Driver == database.DriverPostgres {
		opts := migrations.DefaultOptions()
		opts.MigrationsDir = cfg.Database.MigrationsDir
		opts.SeedData = !*schemaOnly

		runner := migrations.NewRunner(bunDB, opts, log)
		defer runner.Close()

		if *status {
			state, err := runner.Status()
			if err != nil {
				log.Error("MIGRATION", err.Error())
				os.Exit(1)
			}
			fmt.Printf("version=%d dirty=%t pending=%t\n", state.Version, state.Dirty, state.Pending)
			return
		}

		if *down {
			err = runner.MigrateDown()
		} else {
			err = runner.RunMigrations()
		}
		if err != nil {
			log.Error("MIGRATION", err.Error())
			os.Exit(1)
		}
	}

	if *demo {
		n, err := seedDemo(ctx, bunDB)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to seed demo data: %v", err))
			os.Exit(1)
		}
		log.LogDatabase("SEED", "rental_logs", fmt.Sprintf("Inserted %d demo rental logs", n))
	}
	log.Info("MIGRATION", "Done")
}

// seedDemo spreads one log per company over the first zones of the site
func seedDemo(ctx context.Context, bunDB *bun.DB) (int, error) {
	store := &db.DB{Bun: bunDB}
	keys := zones.DefaultTopology().Keys()
	floors := zones.FloorOptions()
	today := utils.Today()

	for i, company := range zones.Companies {
		now := time.Now()
		log := models.RentalLog{
			ID:          uuid.New().String(),
			Company:     company,
			Zone:        keys[i%len(keys)],
			Floor:       floors[(i*4)%len(floors)],
			Content:     "demo rental",
			RentalCount: (i + 1) * 5,
			WorkDate:    today,
			Timestamp:   now,
			CreatedAt:   now,
			EditorID:    models.AnonymousEditor,
			EditorEmail: models.AnonymousEditor,
		}
		if err := store.CreateRentalLog(ctx, log); err != nil {
			return i, err
		}
	}
	return len(zones.Companies), nil
}
