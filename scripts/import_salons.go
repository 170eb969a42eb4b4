// Command import_salons syncs the salon seed file into the configured storage without starting the bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"salonbot/internal/config"
	"salonbot/internal/database"
	"salonbot/internal/domain"
	"salonbot/internal/mongostore"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		configPath = flag.String("config", "configs/config.yaml", "path to config.yaml")
		salonsPath = flag.String("salons", "", "path to salons.yaml (defaults to salons_path from config)")
		dryRun     = flag.Bool("dry-run", false, "validate the file without writing")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	path := *salonsPath
	if path == "" {
		path = cfg.SalonsPath
	}
	if path == "" {
		return fmt.Errorf("no salons file given")
	}

	salons, err := config.LoadSalons(path)
	if err != nil {
		return fmt.Errorf("load salons: %w", err)
	}
	if len(salons) == 0 {
		return fmt.Errorf("no salons in %s", path)
	}
	if *dryRun {
		fmt.Printf("ok: %d salons valid\n", len(salons))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var storage domain.Storage
	if cfg.Database.Driver == config.DriverMongo {
		storage, err = mongostore.Connect(ctx, cfg.Database.Mongo, &logger)
	} else {
		storage, err = database.Open(ctx, cfg.Database, &logger)
	}
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Database.Driver, err)
	}
	defer storage.Close()

	created, updated := 0, 0
	for _, s := range salons {
		existing, err := storage.GetSalon(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("get salon %d: %w", s.ID, err)
		}
		if existing == nil {
			created++
		} else {
			updated++
		}
	}

	if err := storage.SyncSalons(ctx, salons); err != nil {
		return fmt.Errorf("sync salons: %w", err)
	}

	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}
