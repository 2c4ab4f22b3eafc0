package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gesturegames/rps-backend/internal/config"
	"github.com/gesturegames/rps-backend/internal/repository"
	"github.com/gesturegames/rps-backend/internal/repository/storage"
	"github.com/gesturegames/rps-backend/internal/usecase"
	"github.com/gesturegames/rps-backend/transport/rest"
	"github.com/gesturegames/rps-backend/transport/websocket"
)

var ErrUnknownStorage = errors.New("unknown storage backend")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	roomRepo, closeStorage, err := buildRoomRepository(ctx, conf)
	if err != nil {
		return err
	}
	defer closeStorage()

	registry := usecase.NewMatchRegistry(logger, roomRepo)

	hub := websocket.NewHub(logger)
	registry.SetBroadcaster(hub)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, logger, registry, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, registry, hub)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// buildRoomRepository picks the storage backend from config. Redis
// keeps rooms across restarts; memory is for single-process setups.
func buildRoomRepository(ctx context.Context, conf *config.Config) (repository.RoomRepository, func(), error) {
	switch conf.Storage {
	case config.StorageMemory:
		return repository.NewMemoryRoomRepository(), func() {}, nil

	case config.StorageRedis:
		redisClient, err := storage.New(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		closeFn := func() { _ = redisClient.Close() }

		return repository.NewRoomRepository(redisClient, conf.RoomTTL), closeFn, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownStorage, conf.Storage)
	}
}
