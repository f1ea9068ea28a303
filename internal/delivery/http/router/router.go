// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"wander/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	MapHandler    *handler.MapHandler
	FilterHandler *handler.FilterHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	mapHandler    *handler.MapHandler
	filterHandler *handler.FilterHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		mapHandler:    params.MapHandler,
		filterHandler: params.FilterHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	mapGroup := e.Group("/map")
	{
		mapGroup.GET("/tiles", r.mapHandler.GetTiles)
		mapGroup.PUT("/viewer", r.mapHandler.UpdateViewer)
		mapGroup.GET("/filters", r.filterHandler.GetFilters)
		mapGroup.PUT("/filters", r.filterHandler.UpdateFilters)
		mapGroup.POST("/filters/reset", r.filterHandler.ResetFilters)
	}
}
