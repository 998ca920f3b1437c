package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/database"
)

var log = logrus.New()

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "config file path (optional)")
	flag.StringVar(&configPath, "c", "", "config file path (shorthand)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("invalid config: ", err)
	}
	if cfg.Development() {
		log.SetLevel(logrus.DebugLevel)
	}

	url, err := cfg.DatabaseURL()
	if err != nil {
		log.Fatal("unable to find database: ", err)
	}

	migrator, err := database.Migrate(url, database.Migrations)
	if err != nil {
		log.Fatal(err)
	}
	defer migrator.Close()

	version, dirty, err := migrator.Version()
	if err != nil {
		log.Error("failed to check migration version: ", err)
		os.Exit(1)
	}
	log.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("migration successful")
}
