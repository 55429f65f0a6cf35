package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/bagctl/internal/config"
	"github.com/danmuck/bagctl/internal/inspect"
	"github.com/danmuck/bagctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

// Server exposes record-stream inspection over HTTP.
type Server struct {
	Name     string
	Addr     string
	Appeared time.Time

	inspect inspect.Options
	maxBody int64
	router  *gin.Engine
}

func New(cfg config.Config) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Server.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.Server.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		Name:     cfg.Server.Name,
		Addr:     cfg.Server.Addr,
		Appeared: time.Now(),
		inspect: inspect.Options{
			MessagesOnly: cfg.Inspect.MessagesOnly,
			Topics:       cfg.Inspect.Topics,
			Digest:       cfg.Inspect.Digest,
		},
		maxBody: cfg.Server.MaxBodyBytes,
		router:  r,
	}
	s.RegisterRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Serve() error {
	log.Info().Str("name", s.Name).Str("addr", s.Addr).Msg("bagctl server started")
	return s.router.Run(s.Addr)
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}
	}
	return out
}
