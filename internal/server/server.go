// Package server exposes the query pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"docs-query/internal/models"
)

// Querier answers a query from the docs folder
type Querier interface {
	Query(ctx context.Context, query string) (*models.PromptResponse, error)
}

// Server provides the HTTP endpoints
type Server struct {
	echo *echo.Echo
	rag  Querier
	addr string
}

func NewServer(rag Querier, addr string) (*Server, error) {
	if rag == nil {
		return nil, errors.New("querier cannot be nil")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo: e,
		rag:  rag,
		addr: addr,
	}
	e.HTTPErrorHandler = s.handleError

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"*"},
		AllowHeaders: []string{"*"},
	}))

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.POST("/query/", s.handleQuery)
	s.echo.POST("/query", s.handleQuery)
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			// write the response now so the logged status is final
			c.Error(err)
		}

		log.Info().
			Str("method", c.Request().Method).
			Str("uri", c.Request().RequestURI).
			Int("status", c.Response().Status).
			Dur("duration", time.Since(start)).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("http request")
		return nil
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
}

// handleQuery serves POST /query/
func (s *Server) handleQuery(c echo.Context) error {
	var req models.QueryRequest
	if err := c.Bind(&req); err != nil {
		log.Warn().Err(err).Msg("Invalid query request")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == nil {
		return echo.NewHTTPError(http.StatusBadRequest, models.ErrEmptyQuery.Error())
	}

	res, err := s.rag.Query(c.Request().Context(), *req.Query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.QueryResponse{
		Query:    res.Query,
		Response: res.Content,
	})
}

// handleError renders every failure as {"detail": ...}. An empty corpus is
// the caller's problem (400); anything not already an HTTP error is a 500
// carrying the error text.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	detail := err.Error()

	var he *echo.HTTPError
	switch {
	case errors.Is(err, models.ErrEmptyCorpus):
		status = http.StatusBadRequest
		detail = models.EmptyCorpusDetail
	case errors.As(err, &he):
		status = he.Code
		detail = fmt.Sprint(he.Message)
	}
	if detail == "" {
		detail = http.StatusText(status)
	}

	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", requestID).Msgf("Request failed: %+v", err)
	} else {
		log.Warn().Err(err).Str("request_id", requestID).Int("status", status).Msg("Request rejected")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, models.ErrorResponse{Detail: detail})
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to write error response")
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.addr).Msg("Starting http server")
	return s.echo.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down http server")
	return s.echo.Shutdown(ctx)
}
