// Package server exposes the query-facing HTTP API consumed by the site's
// chat widget.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"docrag/internal/domain"
)

// maxQuestionLen bounds the accepted question size.
const maxQuestionLen = 2000

// AskService is the server-facing subset of the query pipeline.
type AskService interface {
	Ask(ctx context.Context, question, callerContext string) (domain.Answer, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigins []string
}

// Server serves POST /chat and GET /health.
type Server struct {
	echo   *echo.Echo
	svc    AskService
	logger *zap.Logger
	config *Config
}

func New(svc AskService, logger *zap.Logger, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("ask service is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 8080}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		}))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{echo: e, svc: svc, logger: logger, config: cfg}
	e.GET("/health", s.handleHealth)
	e.POST("/chat", s.handleChat)
	return s, nil
}

// ChatRequest is the request body for POST /chat.
type ChatRequest struct {
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
}

// ChatResponse is the response body for POST /chat.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question cannot be empty")
	}
	if utf8.RuneCountInString(question) > maxQuestionLen {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("question exceeds %d characters", maxQuestionLen))
	}

	answer, err := s.svc.Ask(c.Request().Context(), question, req.Context)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError,
			fmt.Sprintf("failed to process the request: %v", err))
	}
	if answer.Sources == nil {
		answer.Sources = []string{}
	}
	return c.JSON(http.StatusOK, ChatResponse{Answer: answer.Text, Sources: answer.Sources})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler { return s.echo }
