package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/loomworks/agentboard/internal/infrastructure/config"
	"github.com/loomworks/agentboard/internal/infrastructure/logging"
	"github.com/loomworks/agentboard/internal/relay"
	"go.uber.org/zap"
)

func main() {
	port := flag.String("port", "", "Listen port (overrides RELAY_PORT)")
	host := flag.String("host", "", "Listen host (overrides RELAY_HOST)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Relay.Port = *port
	}
	if *host != "" {
		cfg.Relay.Host = *host
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	srv := relay.NewServer(cfg, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("shutting down")
		if err := srv.Close(); err != nil {
			logger.Warn("shutdown error", zap.Error(err))
		}
	case err := <-errChan:
		logger.Fatal("relay error", zap.Error(err))
	}
}
