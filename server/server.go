// Package server exposes mission status and ground telemetry over HTTP and
// a websocket stream.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/soocke/sputnik-relay/domain/control"
	"github.com/soocke/sputnik-relay/domain/telemetry"
	"github.com/soocke/sputnik-relay/journal"
	errs "github.com/soocke/sputnik-relay/platform/errors"
)

// StatusProvider reports controller counters.
type StatusProvider interface {
	Stats() control.Stats
}

// AlertLister lists recent journal alerts.
type AlertLister interface {
	Recent(ctx context.Context, n int) ([]journal.Alert, error)
}

// Options configure the server. Nil collaborators disable their routes'
// data; the routes still answer.
type Options struct {
	Addr         string
	AllowOrigins []string
	Debug        bool
	Status       StatusProvider
	Alerts       AlertLister
	Telemetry    *telemetry.Cell
	// TelemetryMode reports the reader mode, e.g. "serial" or "simulated".
	TelemetryMode func() string
	Logger        *slog.Logger
}

type Server struct {
	opts     Options
	engine   *gin.Engine
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.AllowOrigins) == 0 {
		opts.AllowOrigins = []string{"*"}
	}
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		opts:     opts,
		logger:   opts.Logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggingMiddleware(opts.Logger))
	engine.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowOrigins,
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	api := engine.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/alerts", s.handleAlerts)
	api.GET("/telemetry", s.handleTelemetry)
	engine.GET("/ws/telemetry", s.handleTelemetryStream)
	s.engine = engine
	return s
}

func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Serve listens on opts.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errs.Wrap(errs.KindTransport, "serve", "listen "+s.opts.Addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("status server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errs.Wrap(errs.KindTransport, "serve", "http server", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errs.Wrap(errs.KindTransport, "shutdown", "http server", err)
	}
	s.logger.Info("status server stopped")
	return nil
}

func (s *Server) handleStatus(c *gin.Context) {
	if s.opts.Status == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "controller not running"})
		return
	}
	c.JSON(http.StatusOK, s.opts.Status.Stats())
}

func (s *Server) handleAlerts(c *gin.Context) {
	if s.opts.Alerts == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal disabled"})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	rows, err := s.opts.Alerts.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Warn("alert listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "journal unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": rows})
}

type telemetryResponse struct {
	telemetry.Snapshot
	Mode string `json:"mode,omitempty"`
}

func (s *Server) handleTelemetry(c *gin.Context) {
	if s.opts.Telemetry == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no telemetry yet"})
		return
	}
	snap, ok := s.opts.Telemetry.Load()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no telemetry yet"})
		return
	}
	c.JSON(http.StatusOK, s.response(snap))
}

func (s *Server) response(snap telemetry.Snapshot) telemetryResponse {
	r := telemetryResponse{Snapshot: snap}
	if s.opts.TelemetryMode != nil {
		r.Mode = s.opts.TelemetryMode()
	}
	return r
}

// handleTelemetryStream pushes every new snapshot, starting with the
// current one, until the client goes away.
func (s *Server) handleTelemetryStream(c *gin.Context) {
	if s.opts.Telemetry == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "telemetry disabled"})
		return
	}
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := s.opts.Telemetry.Subscribe(8)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	if snap, ok := s.opts.Telemetry.Load(); ok {
		if err := s.write(conn, snap); err != nil {
			return
		}
	}
	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := s.write(conn, snap); err != nil {
				s.logger.Debug("websocket client dropped", "error", err)
				return
			}
		}
	}
}

func (s *Server) write(conn *websocket.Conn, snap telemetry.Snapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteJSON(s.response(snap))
}
