package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/phuslu/log"
)

// Server wires the API handlers into a fiber app.
type Server struct {
	app    *fiber.App
	addr   string
	logger log.Logger
}

func New(addr string, handler *Handler, logger log.Logger) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Get("/", handler.HandleHealth)
	app.Get("/health", handler.HandleHealth)
	app.Post("/query", handler.HandleQuery)
	app.Get("/debug/:actor_type/:actor_id", handler.HandleDebugActor)
	app.Get("/stats", handler.HandleStats)

	return &Server{app: app, addr: addr, logger: logger}
}

// Run blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info().Str("addr", s.addr).Msg("http server listening")
	return s.app.Listen(s.addr)
}

func (s *Server) Shutdown() error {
	s.logger.Info().Msg("http server stopping")
	return s.app.Shutdown()
}

// App exposes the fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

func errorHandler(c *fiber.Ctx, err error) error {
	if apiErr, ok := err.(Error); ok {
		return c.Status(apiErr.Code).JSON(apiErr)
	}
	if valErr, ok := err.(ValidationError); ok {
		return c.Status(valErr.Status).JSON(valErr)
	}
	if fiberErr, ok := err.(*fiber.Error); ok {
		return c.Status(fiberErr.Code).JSON(NewError(fiberErr.Code, fiberErr.Message))
	}
	return c.Status(fiber.StatusInternalServerError).JSON(NewError(fiber.StatusInternalServerError, err.Error()))
}
