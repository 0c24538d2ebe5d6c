// Package api wires the facilitator dispatch layer to HTTP (§6's external
// interface table). Grounded on the teacher's api/server.go shape (an
// echo.Echo wrapped in a constructor that registers routes and returns an
// http.Handler), rebuilt against this repository's own
// facilitator.Facilitator and middleware packages rather than the deleted
// swagger/bearer-auth middleware the teacher referenced but never shipped.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/x402-labs/facilitator-core/api/middleware"
	"github.com/x402-labs/facilitator-core/facilitator"
	"github.com/x402-labs/facilitator-core/internal/blacklist"
)

// Server is the HTTP transport collaborator in front of a Facilitator.
type Server struct {
	echo *echo.Echo
}

// NewServer builds a Server with every route in §6 registered.
func NewServer(fac *facilitator.Facilitator, bl *blacklist.Blacklist, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logging(logger))

	h := &handlers{facilitator: fac, blacklist: bl}

	e.GET("/health", h.health)
	e.GET("/supported", h.supported)
	e.GET("/blacklist", h.blacklistStatus)
	e.POST("/verify", h.verify)
	e.POST("/settle", h.settle)

	return &Server{echo: e}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
