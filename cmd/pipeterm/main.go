package main

import (
	"context"
	"log"
	"os"

	"pipeterm/internal/config"
	"pipeterm/internal/logging"
	"pipeterm/internal/storage"
	"pipeterm/internal/ui"
)

func main() {
	ctx := context.Background()

	cfgStore, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfgStore.Config.Debug)
	if err != nil {
		log.Fatalf("init logging: %v", err)
	}
	defer logger.Sync()

	db, err := storage.Open(ctx, logger)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer db.Close()

	program := ui.NewProgram(db, cfgStore, logger)
	if err := program.Start(); err != nil {
		log.Println("program terminated:", err)
		os.Exit(1)
	}
}
