// Package server exposes threshold optimization, binarization and metric
// evaluation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/config"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/evaluation"
)

const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8888
	DefaultBodyLimit  = 4 * 1024 * 1024

	shutdownTimeout = 5 * time.Second
)

type Server struct {
	App *fiber.App

	cfg              config.ServerEnvConfig
	defaultThreshold float64
}

type Option func(*Server)

// WithDefaultThreshold sets the threshold used when a request names none.
func WithDefaultThreshold(t float64) Option {
	return func(s *Server) { s.defaultThreshold = t }
}

// NewServer creates the API server. Zero fields of cfg take the package defaults.
func NewServer(cfg config.ServerEnvConfig, opts ...Option) *Server {
	if cfg.ServerHost == "" {
		cfg.ServerHost = DefaultServerHost
	}
	if cfg.ServerPort == 0 {
		cfg.ServerPort = DefaultServerPort
	}
	if cfg.ServerBodyLimit == 0 {
		cfg.ServerBodyLimit = DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          fiberErrHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		BodyLimit:             cfg.ServerBodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(ZstdMiddleware([]string{healthPath}))

	s := &Server{
		App:              app,
		cfg:              cfg,
		defaultThreshold: evaluation.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}

	app.Get(healthPath, func(c *fiber.Ctx) error {
		return c.JSON(createResponse(fiber.Map{"status": "ok"}, nil))
	})
	ServeRoute(s, EvaluatePath, s.handleEvaluate)
	ServeRoute(s, OptimizePath, s.handleOptimize)
	ServeRoute(s, BinarizePath, s.handleBinarize)

	return s
}

// Address is the host:port the server listens on.
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.cfg.ServerHost, s.cfg.ServerPort)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.App.Listen(s.Address())
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen %s: %w", s.Address(), err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.App.ShutdownWithContext(shutdownCtx)
}

// ServeRoute registers a JSON POST endpoint at path.
func ServeRoute[Req, Resp any](s *Server, path string, handler RouteHandler[Req, Resp]) {
	s.App.Post(path, func(c *fiber.Ctx) error {
		var req Req
		if err := c.BodyParser(&req); err != nil {
			log.Error().Err(err).Str("route", path).Msg("failed to parse request body")
			return c.Status(fiber.StatusBadRequest).JSON(createResponse(struct{}{}, err))
		}

		resp, err := handler(c, req)
		if err != nil {
			code := statusFor(err)
			log.Warn().Err(err).Str("route", path).Int("status_code", code).Msg("handler returned error")
			var zero Resp
			return c.Status(code).JSON(createResponse(zero, err))
		}

		return c.JSON(createResponse(resp, nil))
	})
}

func createResponse[T any](body T, err error) StdResponse[T] {
	if err != nil {
		msg := err.Error()
		return StdResponse[T]{Body: body, Error: &msg}
	}
	return StdResponse[T]{Body: body}
}

// statusFor maps input errors to 400 and everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, evaluation.ErrDimensionMismatch),
		errors.Is(err, evaluation.ErrInvalidThreshold),
		errors.Is(err, evaluation.ErrNilMatrix),
		errors.Is(err, ErrRaggedMatrix):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func fiberErrHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	log.Error().
		Err(err).
		Int("status_code", code).
		Str("path", c.Path()).
		Str("method", c.Method()).
		Msg("fiber error handler triggered")

	return c.Status(code).JSON(createResponse(struct{}{}, err))
}
