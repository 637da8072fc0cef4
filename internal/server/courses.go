package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursebuddy/coursebuddy/internal/canvas"
)

// CoursesHandler proxies a couple of convenience reads straight to Canvas.
type CoursesHandler struct {
	Canvas *canvas.Client
}

func (h *CoursesHandler) Register(g *echo.Group) {
	g.GET("/me", h.me)
	g.GET("/courses", h.courses)
}

func (h *CoursesHandler) me(c echo.Context) error {
	profile, err := h.Canvas.Profile(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *CoursesHandler) courses(c echo.Context) error {
	courses, err := h.Canvas.FavoriteCourses(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, courses)
}
