// Package worker provides the prompt library dashboard service.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/promptdeck/internal/config"
	"github.com/thebtf/promptdeck/internal/filter"
	"github.com/thebtf/promptdeck/internal/library"
	"github.com/thebtf/promptdeck/internal/mcp"
	"github.com/thebtf/promptdeck/internal/watcher"
	"github.com/thebtf/promptdeck/internal/worker/sse"
)

const (
	// RequestIDHeader carries the per-request id in both directions.
	RequestIDHeader = "X-Request-ID"

	// MCPBasePath is where the MCP SSE transport is mounted.
	MCPBasePath = "/mcp"

	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Service serves the dashboard and its JSON API over one library snapshot.
type Service struct {
	version        string
	config         *config.Config
	store          *library.Store
	engine         *filter.Engine
	sseBroadcaster *sse.Broadcaster
	mcp            *mcp.Server
	mcpSSE         *mcpserver.SSEServer
	router         *chi.Mux
	server         *http.Server
	watcher        *watcher.Watcher

	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
	stopOnce  sync.Once
}

// NewService creates a Service that loads the library described by cfg.
func NewService(version string, cfg *config.Config) *Service {
	store := library.NewStore(library.Options{
		Source:    cfg.LibrarySource,
		CacheBust: cfg.CacheBust,
		PackDir:   cfg.PackDir,
		Timeout:   cfg.FetchTimeout,
	})
	return newService(version, cfg, store)
}

func newService(version string, cfg *config.Config, store *library.Store) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &Service{
		version:        version,
		config:         cfg,
		store:          store,
		engine:         filter.NewEngine(cfg.Locale),
		sseBroadcaster: sse.NewBroadcaster(),
		router:         chi.NewRouter(),
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
	}
	svc.mcp = mcp.NewServer(store, svc.engine, version, cfg.MCPDisabledTools)
	svc.mcpSSE = svc.mcp.SSE(MCPBasePath)
	svc.setupRoutes()
	return svc
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Service) Handler() http.Handler { return s.router }

// Start begins serving, then loads the library and starts the watcher. Until the first
// load finishes the API answers 503 "starting"; a failed first load does not stop the
// service, the dashboard shows the load error instead.
func (s *Service) Start() error {
	addr := net.JoinHostPort(s.config.WorkerHost, strconv.Itoa(s.config.WorkerPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.serve(ln)
	s.warmUp()
	return nil
}

func (s *Service) serve(ln net.Listener) {
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		// Streaming handlers end when the service context is cancelled.
		BaseContext: func(net.Listener) context.Context { return s.ctx },
	}

	go func() {
		log.Info().Str("addr", ln.Addr().String()).Str("version", s.version).Msg("Dashboard listening")
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Dashboard server stopped")
		}
	}()
}

func (s *Service) warmUp() {
	_ = s.Reload(s.ctx)
	if s.config.WatchLibrary {
		if err := s.startWatcher(); err != nil {
			log.Warn().Err(err).Msg("Library watcher disabled")
		}
	}
}

// Shutdown stops the watcher, disconnects SSE clients and drains the HTTP server.
func (s *Service) Shutdown(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.cancel()
		if s.watcher != nil {
			_ = s.watcher.Stop()
		}
		s.sseBroadcaster.CloseAll()
		if s.server == nil {
			return
		}
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
		}
		err = s.server.Shutdown(ctx)
	})
	return err
}

// Reload reloads the library and tells connected dashboards about the outcome.
func (s *Service) Reload(ctx context.Context) error {
	catalog, err := s.store.Load(ctx)
	if err != nil {
		s.sseBroadcaster.Broadcast(sse.Event{Type: sse.EventLibraryError, Message: library.LoadFailedMessage})
		return err
	}
	s.mcp.SyncPrompts()
	s.sseBroadcaster.Broadcast(sse.Event{
		Type:    sse.EventLibraryReloaded,
		Version: catalog.Version(),
		Count:   catalog.Count(),
	})
	return nil
}

func (s *Service) startWatcher() error {
	source := s.config.LibrarySource
	if library.IsRemote(source) {
		source = ""
	}
	if source == "" && s.config.PackDir == "" {
		return nil
	}

	w, err := watcher.New(source, s.config.PackDir, func(path string) {
		log.Info().Str("path", path).Msg("Library changed on disk, reloading")
		_ = s.Reload(s.ctx)
	})
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	s.watcher = w
	return nil
}

func (s *Service) setupRoutes() {
	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)
	if len(s.config.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.config.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
			ExposedHeaders: []string{RequestIDHeader},
			MaxAge:         300,
		}))
	}

	s.router.Get("/", serveIndex)
	s.router.Get("/assets/*", serveAssets)
	s.router.Get("/health", s.handleHealth)

	s.router.With(s.requireLibrary).Get("/data/prompt-library.json", s.handleDataset)

	s.router.Handle(MCPBasePath+"/sse", s.mcpSSE.SSEHandler())
	s.router.Handle(MCPBasePath+"/message", s.mcpSSE.MessageHandler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/events", s.sseBroadcaster.HandleSSE)
		r.Post("/reload", s.handleReload)

		r.Group(func(r chi.Router) {
			r.Use(s.requireLibrary)
			r.Get("/library", s.handleLibrary)
			r.Get("/prompts", s.handlePrompts)
			r.Get("/prompts/{id}", s.handlePrompt)
			r.Get("/filters", s.handleFilters)
			r.Get("/view", s.handleView)
			r.Post("/state", s.handleState)
		})
	})
}

// requestID tags each request with a uuid, reusing an incoming X-Request-ID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("requestId", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
