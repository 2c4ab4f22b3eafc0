// Package rest is the request/response side of the gateway. Every
// mutation here commits through the match registry and is then pushed
// to the room's sockets; polling GET /rooms/{game_id} is the fallback
// when the push channel is flaky.
package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Start - starts the HTTP server.
func Start(ctx context.Context, logger *slog.Logger, registry Registry, port string) error {
	handlers := NewHandlers(logger, registry)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handlers.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Router builds the API surface.
func (that *Handlers) Router() http.Handler {
	router := chi.NewRouter()

	router.Get("/ping", that.Ping)

	router.Route("/rooms", func(r chi.Router) {
		r.Post("/", that.CreateRoom)
		r.Route("/{game_id}", func(r chi.Router) {
			r.Get("/", that.GetState)
			r.Post("/join", that.JoinRoom)
			r.Post("/ready", that.SetReady)
			r.Post("/move", that.SubmitMove)
			r.Post("/reset", that.ResetRound)
		})
	})

	return router
}
