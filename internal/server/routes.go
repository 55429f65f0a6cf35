package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/bagctl/internal/bag"
	"github.com/danmuck/bagctl/internal/inspect"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.POST("/inspect", s.handleInspect)
}

// handleInspect summarizes the raw record stream in the request body.
func (s *Server) handleInspect(c *gin.Context) {
	opts, err := s.inspectOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := inspect.Run(body, opts)
	if err != nil {
		log.Warn().
			Str("server", s.Name).
			Int("bytes", len(body)).
			Err(err).
			Msg("inspect request failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   err.Error(),
			"kind":    bag.ErrorKind(err),
			"summary": summary,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// inspectOptions starts from the configured options; query parameters
// override them per request.
func (s *Server) inspectOptions(c *gin.Context) (inspect.Options, error) {
	opts := s.inspect
	if raw, ok := c.GetQuery("messages_only"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return inspect.Options{}, fmt.Errorf("invalid messages_only: %q", raw)
		}
		opts.MessagesOnly = v
	}
	if raw, ok := c.GetQuery("digest"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return inspect.Options{}, fmt.Errorf("invalid digest: %q", raw)
		}
		opts.Digest = v
	}
	if topics, ok := c.GetQueryArray("topic"); ok {
		opts.Topics = topics
	}
	return opts, nil
}
