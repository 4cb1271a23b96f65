package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"elearning/internal/model"
	"elearning/internal/service"
)

// CourseHandler handles course administration endpoints.
type CourseHandler struct {
	courseService service.CourseService
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(courseService service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// CreateCourseRequest represents a new course.
type CreateCourseRequest struct {
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description" validate:"required"`
	Level       model.Level `json:"level" validate:"required,oneof=BASIC INTERMEDIATE ADVANCED"`
	NameURL     string      `json:"nameUrl" validate:"required"`
	ImageURL    string      `json:"imageUrl"`
}

// EditCourseRequest changes the fields that are present.
type EditCourseRequest struct {
	ID          uint         `json:"id" validate:"required"`
	Title       *string      `json:"title" validate:"omitempty,min=1"`
	Description *string      `json:"description" validate:"omitempty,min=1"`
	Level       *model.Level `json:"level" validate:"omitempty,oneof=BASIC INTERMEDIATE ADVANCED"`
	NameURL     *string      `json:"nameUrl" validate:"omitempty,min=1"`
	ImageURL    *string      `json:"imageUrl"`
}

// IDRequest identifies a course or class.
type IDRequest struct {
	ID uint `json:"id" query:"id" validate:"required"`
}

// ClassPositionRequest places one class.
type ClassPositionRequest struct {
	ID          uint `json:"id" validate:"required"`
	ClassNumber int  `json:"classNumber" validate:"required,gt=0"`
}

// UpdateClassOrderRequest renumbers every class of a course.
type UpdateClassOrderRequest struct {
	RouteID uint                   `json:"routeId" validate:"required"`
	Classes []ClassPositionRequest `json:"classes" validate:"required,min=1,dive"`
}

// CreateCourse godoc
// @Summary Create a course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Param request body CreateCourseRequest true "Course"
// @Success 201 {object} Response{data=[]model.Course}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/createCourse [post]
func (h *CourseHandler) CreateCourse(c echo.Context) error {
	var req CreateCourseRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	courses, err := h.courseService.Create(c.Request().Context(), service.CourseInput{
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
		NameURL:     req.NameURL,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, Response{Message: "course created", Data: courses})
}

// EditCourse godoc
// @Summary Edit a course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Param request body EditCourseRequest true "Fields to change"
// @Success 200 {object} Response{data=[]model.Course}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/editCourse [put]
func (h *CourseHandler) EditCourse(c echo.Context) error {
	var req EditCourseRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	courses, err := h.courseService.Edit(c.Request().Context(), req.ID, service.CourseUpdate{
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
		NameURL:     req.NameURL,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Message: "course updated", Data: courses})
}

// DeleteCourse godoc
// @Summary Delete a course and its classes
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Param request body IDRequest true "Course id"
// @Success 200 {object} Response{data=[]model.Course}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/deleteCourse [delete]
func (h *CourseHandler) DeleteCourse(c echo.Context) error {
	var req IDRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	courses, err := h.courseService.Delete(c.Request().Context(), req.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Message: "course deleted", Data: courses})
}

// UpdateClassOrder godoc
// @Summary Renumber the classes of a course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Param request body UpdateClassOrderRequest true "New order"
// @Success 200 {object} Response{data=[]model.Class}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/updateClassOrder [post]
func (h *CourseHandler) UpdateClassOrder(c echo.Context) error {
	var req UpdateClassOrderRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	order := make([]service.ClassPosition, 0, len(req.Classes))
	for _, item := range req.Classes {
		order = append(order, service.ClassPosition{ID: item.ID, ClassNumber: item.ClassNumber})
	}

	classes, err := h.courseService.ReorderClasses(c.Request().Context(), req.RouteID, order)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Message: "class order updated", Data: classes})
}
