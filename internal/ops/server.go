package ops

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/streamdup/internal/config"
	"github.com/GriffinCanCode/streamdup/internal/logging"
	"github.com/GriffinCanCode/streamdup/internal/monitoring"
	"github.com/GriffinCanCode/streamdup/internal/relay"
)

// Server exposes the diagnostics HTTP surface next to a running relay
// session. It is entirely optional: main only constructs one when
// Config.Ops.Addr is set.
type Server struct {
	log  *logging.Logger
	http *http.Server
}

// NewServer builds the router and wraps it in an http.Server bound to
// cfg.Ops.Addr. Nothing listens until Start.
func NewServer(cfg *config.Config, session *relay.Session, log *logging.Logger, metrics *monitoring.Metrics) *Server {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(log))
	router.Use(monitoring.Middleware(metrics))
	router.Use(CORS(DefaultCORSConfig()))
	router.Use(GlobalRateLimit(RateLimitConfig{
		RequestsPerSecond: cfg.Ops.RequestsPerSecond,
		Burst:             cfg.Ops.Burst,
	}))

	handlers := NewHandlers(session)
	stream := NewStreamHandler(session, log, metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/stats", handlers.Stats)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/stream", stream.HandleConnection)

	return &Server{
		log: log,
		http: &http.Server{
			Addr:              cfg.Ops.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start begins serving on a background goroutine.
func (s *Server) Start() {
	s.log.Info("ops server listening", zap.String("addr", s.http.Addr))

	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("ops server failed", zap.Error(err))
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests up to the
// context deadline. Open websockets are severed by Close afterwards.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("ops server shutting down")
	if err := s.http.Shutdown(ctx); err != nil {
		return s.http.Close()
	}
	return nil
}
