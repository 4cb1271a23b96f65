package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"elearning/internal/model"
	"elearning/internal/service"
)

// AdminHandler handles user administration endpoints.
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// EditUserRoleRequest assigns a role to a user.
type EditUserRoleRequest struct {
	Email string     `json:"email" validate:"required,email"`
	Role  model.Role `json:"role" validate:"required,oneof=ADMIN PREMIUM FREE"`
}

// GetUser godoc
// @Summary Look up a user's role by email
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Param email query string true "User email"
// @Success 200 {object} Response{data=service.UserRole}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/getUser [get]
func (h *AdminHandler) GetUser(c echo.Context) error {
	var req EmailRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.adminService.GetUser(c.Request().Context(), req.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Data: user})
}

// EditUserRole godoc
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Param request body EditUserRoleRequest true "Email and role"
// @Success 200 {object} Response{data=service.UserRole}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/editUserRole [put]
func (h *AdminHandler) EditUserRole(c echo.Context) error {
	var req EditUserRoleRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.adminService.EditUserRole(c.Request().Context(), req.Email, req.Role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Data: user})
}

// GetTotalUsers godoc
// @Summary User totals by verification and role
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Success 200 {object} Response{data=service.UserStats}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/getTotalUsers [get]
func (h *AdminHandler) GetTotalUsers(c echo.Context) error {
	stats, err := h.adminService.UserStats(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Data: stats})
}
