package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/deanable/RedditVideoMaker-sub000/agents/videomaker"
	"github.com/deanable/RedditVideoMaker-sub000/shared/config"
	"github.com/deanable/RedditVideoMaker-sub000/shared/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, closeLog, err := logging.New(cfg.Output.LogFile)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer func() {
		if err := closeLog(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent := videomaker.NewAgent(cfg, logger)
	if err := agent.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize agent")
	}

	if err := agent.RunOnce(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Batch run failed")
	}
}
