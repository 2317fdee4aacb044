package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/canteen-works/mensa/internal/api"
	"github.com/canteen-works/mensa/internal/clock"
	"github.com/canteen-works/mensa/internal/config"
	"github.com/canteen-works/mensa/internal/home"
	"github.com/canteen-works/mensa/internal/scanner"
	"github.com/canteen-works/mensa/internal/server/endpoints"
	"github.com/canteen-works/mensa/internal/store"
	"github.com/canteen-works/mensa/internal/svcctx"
)

// Server is the main mensa HTTP server. It owns the menu store and the
// document scanner, loading the snapshot on start and saving it on shutdown.
type Server struct {
	httpServer *http.Server
	store      *store.Store
	scanner    *scanner.Scanner
	clock      *clock.Clock
	configMgr  *config.Manager
	logger     *slog.Logger
	home       *home.Dir

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 0.0.0.0)
	Host string
	// Port is the port to listen on (default: 8160)
	Port int
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
	// Home is the mensa home directory
	Home *home.Dir
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8160
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		h, err := home.New("")
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.Home = h
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
		home:      cfg.Home,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = endpoints.NewRegistry()

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server. It blocks until the context is cancelled or an
// error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	menuCfg := s.menuConfig()

	clk, err := clock.New(menuCfg.Timezone)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to load timezone: %w", err)
	}
	s.clock = clk

	s.store = store.New()
	if menuCfg.Snapshot {
		if err := s.store.LoadSnapshot(s.home.SnapshotPath()); err != nil {
			s.logger.Warn("snapshot load failed, starting empty", "error", err)
		} else if s.store.Len() > 0 {
			s.logger.Info("snapshot loaded", "days", s.store.Len())
		}
	}

	menuDir := menuCfg.Dir
	if menuDir == "" {
		menuDir = s.home.MenusPath()
	}
	sc, err := scanner.New(menuDir, s.store, s.clock, s.logger)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to create scanner: %w", err)
	}
	s.scanner = sc
	s.scanner.SetMealTimes(s.mealsConfig().Times())

	if s.configMgr != nil {
		s.configMgr.OnChange(func(c *config.Config) {
			s.logger.Info("configuration reloaded")
			s.scanner.SetMealTimes(c.Meals.Times())
			if c.Menu.Dir != "" && c.Menu.Dir != s.scanner.Dir() {
				s.logger.Warn("menu.dir changed, restart required to take effect",
					"current", s.scanner.Dir(), "new", c.Menu.Dir)
			}
		})
	}

	// Create services struct for context enrichment
	s.services = &svcctx.Services{
		Store:         s.store,
		Scanner:       s.scanner,
		Clock:         s.clock,
		ConfigManager: s.configMgr,
		Logger:        s.logger,
		Home:          s.home,
	}

	// Ingest documents: watch mode runs until shutdown, otherwise one scan.
	scanCtx, cancelScan := context.WithCancel(ctx)
	defer cancelScan()
	if menuCfg.Watch {
		go func() {
			if err := s.scanner.Watch(scanCtx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("directory watch stopped", "error", err)
			}
		}()
	} else {
		if _, err := s.scanner.Scan(scanCtx); err != nil {
			s.setNotRunning()
			return fmt.Errorf("initial scan failed: %w", err)
		}
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown and saves the menu snapshot.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.store != nil && s.menuConfig().Snapshot {
		if err := s.store.SaveSnapshot(s.home.SnapshotPath()); err != nil {
			s.logger.Error("snapshot save error", "error", err)
		} else {
			s.logger.Info("snapshot saved", "days", s.store.Len())
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

// menuConfig returns the current menu section, or defaults when no config
// manager is wired.
func (s *Server) menuConfig() config.MenuCfg {
	if s.configMgr != nil {
		return s.configMgr.Get().Menu
	}
	return config.DefaultConfig().Menu
}

func (s *Server) mealsConfig() config.MealsCfg {
	if s.configMgr != nil {
		return s.configMgr.Get().Meals
	}
	return config.DefaultConfig().Meals
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Store returns the menu store. Returns nil if the server hasn't started yet.
func (s *Server) Store() *store.Store {
	return s.store
}

// Scanner returns the document scanner. Returns nil if the server hasn't
// started yet.
func (s *Server) Scanner() *scanner.Scanner {
	return s.scanner
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable while the store and scanner are not ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil || s.scanner == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
