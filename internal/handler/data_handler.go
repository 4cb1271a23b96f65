package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"elearning/internal/service"
)

// DataHandler serves the public catalogue.
type DataHandler struct {
	courseService service.CourseService
	classService  service.ClassService
}

// NewDataHandler creates a new catalogue handler.
func NewDataHandler(courseService service.CourseService, classService service.ClassService) *DataHandler {
	return &DataHandler{courseService: courseService, classService: classService}
}

// RouteRequest identifies a course by path.
type RouteRequest struct {
	RouteID uint `param:"routeId" validate:"required"`
}

// GetCourses godoc
// @Summary List every course
// @Tags catalogue
// @Produce json
// @Success 200 {object} Response{data=[]model.Course}
// @Failure 500 {object} errors.ErrorResponse
// @Router /data/getCourses [get]
func (h *DataHandler) GetCourses(c echo.Context) error {
	courses, err := h.courseService.ListCourses(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Data: courses})
}

// GetClasses godoc
// @Summary List the classes of a course in order
// @Tags catalogue
// @Produce json
// @Param routeId path int true "Course id"
// @Success 200 {object} Response{data=[]model.Class}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /data/getClasses/{routeId} [get]
func (h *DataHandler) GetClasses(c echo.Context) error {
	var req RouteRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	classes, err := h.classService.ListByCourse(c.Request().Context(), req.RouteID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Data: classes})
}
