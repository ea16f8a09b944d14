package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/huddleapp/huddle/internal/adapter/utils"
	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/handlers"
	"github.com/huddleapp/huddle/internal/middleware"
	"github.com/huddleapp/huddle/pkg/logging"
)

type Server struct {
	httpServer *http.Server
	logger     *logging.Logger
}

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// New builds the router and the http.Server around it. The MCP handler is
// optional; when non-nil it is mounted at /mcp behind the same middleware.
func New(listenAddr string, h *handlers.Handler, mcpHandler http.Handler) *Server {
	r := chi.NewRouter()
	utils.InitSwagger(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", middleware.Wrap(h.HealthHandler))

	r.Post("/channels", middleware.Wrap(h.CreateChannelHandler))
	r.Post("/channels/{channelId}/messages", middleware.Wrap(h.PostMessageHandler))
	r.Post("/channels/{channelId}/chat", middleware.Wrap(h.ChannelChatHandler))

	r.Post("/docs/chat", middleware.Wrap(h.DocsChatHandler))
	r.Post("/ingest", middleware.Wrap(h.PostIngestHandler))

	r.Get("/status/{id}", middleware.Wrap(h.GetStatusHandler))

	r.Post("/admin/reset", middleware.Wrap(h.AdminResetHandler))
	r.Post("/admin/query", middleware.Wrap(h.AdminQueryHandler))
	r.Post("/admin/sweep", middleware.Wrap(h.AdminSweepHandler))

	if mcpHandler != nil {
		r.Handle("/mcp", mcpHandler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         listenAddr,
			Handler:      r,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: logging.NewLogger("server"),
	}
}

// Run blocks until the server stops.
func (s *Server) Run() {
	s.logger.Info("server is listening", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("server crashed", "error", err.Error(), "addr", s.httpServer.Addr)
	}
}

// ShutDownHandler waits for a signal, drains in-flight requests, stops the
// workers and tears the services down, in that order.
func (s *Server) ShutDownHandler(params ShutdownParams) {
	state := <-params.GracefulShutdown
	s.logger.Info("server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		s.httpServer.SetKeepAlivesEnabled(false)

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("could not shutdown gracefully", "error", err.Error())
		}

		close(params.WorkerStop)
		params.Group.Wait()
		params.CloseServices()
		close(params.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("graceful shutdown complete")
	case <-ctx.Done():
		s.logger.Info("forced shutdown")
		os.Exit(1)
	}
}
