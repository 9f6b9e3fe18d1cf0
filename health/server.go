// Package health serves the endpoints hosting platforms
// use to check that the bot is alive.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

type Configuration struct {
	LogLevel        log.Level     `yaml:"LogLevel" validate:"required" env:"LOG_LEVEL"`
	Enabled         bool          `yaml:"Enabled" env:"ENABLE_HEALTH_CHECK"`
	Port            int           `yaml:"Port" validate:"required,min=1,max=65535" env:"PORT"`
	ShutdownTimeout time.Duration `yaml:"ShutdownTimeout" validate:"required"`
}

type Server struct {
	log     *log.Logger
	config  *Configuration
	started time.Time
}

type healthResponse struct {
	Status     string `json:"status"`
	Uptime     string `json:"uptime"`
	Timestamp  string `json:"timestamp"`
	RSSBytes   uint64 `json:"rss_bytes"`
	Goroutines int    `json:"goroutines"`
}

// NewServer creates the health check server, the uptime
// is measured from the provided time.
func NewServer(config *Configuration, started time.Time) *Server {
	l := log.New()
	l.SetLevel(config.LogLevel)
	l.Debug("Health server created")
	return &Server{
		log:     l,
		config:  config,
		started: started,
	}
}

// Router returns the handler serving the health endpoints.
func (server *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", server.handleHealth())
	r.Get("/ping", server.handlePing())
	r.Get("/", server.handleRoot())
	return r
}

// Run serves the health endpoints until the context is done,
// then shuts the server down gracefully. Returns immediately
// if the server is disabled.
func (server *Server) Run(ctx context.Context) error {
	if !server.config.Enabled {
		server.log.Info("Health check server disabled")
		return nil
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", server.config.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	server.log.WithField("Port", server.config.Port).Info("Health check server started")

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if e := <-errs; !errors.Is(e, http.ErrServerClosed) && err == nil {
		err = e
	}
	server.log.Info("Health check server stopped")
	return err
}

func (server *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics, err := Collect(server.started)
		if err != nil {
			// NOTE: the process is alive even if its memory
			// could not be read.
			server.log.WithField("Error", err).Warn("Could not collect metrics")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&healthResponse{
			Status:     "healthy",
			Uptime:     FormatUptime(metrics.Uptime),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			RSSBytes:   metrics.RSSBytes,
			Goroutines: metrics.Goroutines,
		})
	}
}

func (server *Server) handlePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("pong"))
	}
}

func (server *Server) handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(
			w,
			"🎵 Music Bot is running!\n⏰ Uptime: %s",
			FormatUptime(time.Since(server.started)),
		)
	}
}
