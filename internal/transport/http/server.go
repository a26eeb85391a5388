// Package http provides the HTTP server of the chat gateway.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/clompanion/internal/config"
	"github.com/xiaot623/clompanion/internal/service"
	v1 "github.com/xiaot623/clompanion/internal/transport/http/v1"
	"github.com/xiaot623/clompanion/internal/transport/ws"
)

// NewServer creates and configures the HTTP server: the JSON chat API and the
// websocket endpoint.
func NewServer(svc *service.Service, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(svc)
	wsServer := ws.NewServer(cfg, svc)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	wsServer.RegisterRoutes(e)

	return e
}
