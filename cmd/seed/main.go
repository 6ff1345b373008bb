package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/yungbote/instrument-catalog/internal/app"
	"github.com/yungbote/instrument-catalog/internal/data/seed"
)

func main() {
	file := flag.String("file", "", "seed YAML file (defaults to the embedded seed)")
	flag.Parse()

	log, err := app.NewLogger()
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	app.LoadDotEnv(log)
	cfg := app.LoadConfig(log)

	var f *seed.File
	if *file != "" {
		raw, err := os.ReadFile(*file)
		if err != nil {
			log.Error("Failed to read seed file", "path", *file, "error", err)
			os.Exit(1)
		}
		f, err = seed.Parse(raw)
		if err != nil {
			log.Error("Invalid seed file", "path", *file, "error", err)
			os.Exit(1)
		}
	} else if f, err = seed.Default(); err != nil {
		log.Error("Invalid embedded seed", "error", err)
		os.Exit(1)
	}

	dbs, err := app.OpenDatabase(log, cfg)
	if err != nil {
		log.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer dbs.Close()

	if _, err := seed.NewSeeder(dbs.DB(), log).Run(context.Background(), f, !cfg.Development()); err != nil {
		if errors.Is(err, seed.ErrAlreadySeeded) {
			log.Warn("Skipping seed: database already has data")
			return
		}
		log.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
}
