package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/GitProjsStack/chess-arena/api"
	"github.com/GitProjsStack/chess-arena/room"
	"github.com/GitProjsStack/chess-arena/rules"
	"github.com/GitProjsStack/chess-arena/util"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	util.InitValidator()

	config, err := util.LoadConfig()

	if err != nil {
		log.Fatal("cannot load config: ", err)
	}

	logger, err := util.NewLogger(config)

	if err != nil {
		log.Fatal("cannot build logger: ", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	oracle := rules.NewOracle()
	registry := room.NewRegistry(oracle.Start())
	coordinator := room.NewCoordinator(registry, oracle, logger)

	go registry.RunJanitor(ctx, config.RoomSweepInterval, config.RoomIdleTTL, logger.Named("janitor"))

	server := api.NewServer(config, coordinator, logger)

	errc := make(chan error, 1)
	go func() {
		errc <- server.Start()
	}()

	select {
	case err := <-errc:
		if err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
		return
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
