package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"elearning/internal/model"
	"elearning/internal/service"
)

// ClassHandler handles class administration endpoints.
type ClassHandler struct {
	classService service.ClassService
}

// NewClassHandler creates a new class handler.
func NewClassHandler(classService service.ClassService) *ClassHandler {
	return &ClassHandler{classService: classService}
}

// CreateClassRequest represents a new class appended to a course.
type CreateClassRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description" validate:"required"`
	Role        model.Role `json:"role" validate:"required,oneof=ADMIN PREMIUM FREE"`
	RouteID     uint       `json:"routeId" validate:"required"`
	VideoURL    string     `json:"videoUrl" validate:"required"`
}

// EditClassRequest changes the fields that are present.
type EditClassRequest struct {
	ID          uint        `json:"id" validate:"required"`
	Title       *string     `json:"title" validate:"omitempty,min=1"`
	Description *string     `json:"description" validate:"omitempty,min=1"`
	Role        *model.Role `json:"role" validate:"omitempty,oneof=ADMIN PREMIUM FREE"`
	VideoURL    *string     `json:"videoUrl" validate:"omitempty,min=1"`
}

// CreateClass godoc
// @Summary Append a class to a course
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Param request body CreateClassRequest true "Class"
// @Success 201 {object} Response{data=[]model.Class}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/createClass [post]
func (h *ClassHandler) CreateClass(c echo.Context) error {
	var req CreateClassRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	classes, err := h.classService.Create(c.Request().Context(), service.ClassInput{
		Title:       req.Title,
		Description: req.Description,
		Role:        req.Role,
		RouteID:     req.RouteID,
		VideoURL:    req.VideoURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, Response{Message: "class created", Data: classes})
}

// EditClass godoc
// @Summary Edit a class
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Param request body EditClassRequest true "Fields to change"
// @Success 200 {object} Response{data=[]model.Class}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/editClass [put]
func (h *ClassHandler) EditClass(c echo.Context) error {
	var req EditClassRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	classes, err := h.classService.Edit(c.Request().Context(), req.ID, service.ClassUpdate{
		Title:       req.Title,
		Description: req.Description,
		Role:        req.Role,
		VideoURL:    req.VideoURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Message: "class updated", Data: classes})
}

// DeleteClass godoc
// @Summary Delete a class and close the gap in numbering
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Param request body IDRequest true "Class id"
// @Success 200 {object} Response{data=[]model.Class}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/deleteClass [delete]
func (h *ClassHandler) DeleteClass(c echo.Context) error {
	var req IDRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	classes, err := h.classService.Delete(c.Request().Context(), req.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Message: "class deleted", Data: classes})
}
