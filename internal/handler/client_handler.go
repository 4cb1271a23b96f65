package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"elearning/internal/service"
)

// ClientHandler serves the authenticated user's own account.
type ClientHandler struct {
	profileService service.ProfileService
}

// NewClientHandler creates a new client handler.
func NewClientHandler(profileService service.ProfileService) *ClientHandler {
	return &ClientHandler{profileService: profileService}
}

// EditProfileRequest changes the identity fields of the caller.
type EditProfileRequest struct {
	Name     string `json:"name" validate:"required"`
	LastName string `json:"last_name" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// EditEmailRequest changes the caller's email. The current password is
// required.
type EditEmailRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EditPasswordRequest changes the caller's password.
type EditPasswordRequest struct {
	Password    string `json:"password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// MarkClassViewedRequest records a watched class.
type MarkClassViewedRequest struct {
	ClassID uint `json:"classId" validate:"required"`
}

// GetDataUser godoc
// @Summary Get the caller's profile
// @Tags client
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Success 200 {object} Response{data=service.Profile}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /client/getDataUser [get]
func (h *ClientHandler) GetDataUser(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return respondError(c, err)
	}

	profile, err := h.profileService.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Data: profile})
}

// EditProfile godoc
// @Summary Edit name, last name and username
// @Tags client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Param request body EditProfileRequest true "New profile"
// @Success 200 {object} Response{data=service.ProfileUpdate}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /client/editProfile [put]
func (h *ClientHandler) EditProfile(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req EditProfileRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	updated, err := h.profileService.EditProfile(c.Request().Context(), userID, service.ProfileUpdate{
		Name:     req.Name,
		LastName: req.LastName,
		Username: req.Username,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Message: "profile updated", Data: updated})
}

// EditEmail godoc
// @Summary Change the caller's email
// @Tags client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Param request body EditEmailRequest true "New email and current password"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /client/editEmail [put]
func (h *ClientHandler) EditEmail(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req EditEmailRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	email, err := h.profileService.EditEmail(c.Request().Context(), userID, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Message: "email updated", Data: echo.Map{"email": email}})
}

// EditPassword godoc
// @Summary Change the caller's password
// @Tags client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Param request body EditPasswordRequest true "Current and new password"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /client/editPassword [put]
func (h *ClientHandler) EditPassword(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req EditPasswordRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.profileService.EditPassword(c.Request().Context(), userID, req.Password, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Message: "password updated"})
}

// MarkClassAsViewed godoc
// @Summary Mark a class as viewed
// @Tags client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Param request body MarkClassViewedRequest true "Class id"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /client/markClassAsViewed [put]
func (h *ClientHandler) MarkClassAsViewed(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req MarkClassViewedRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	viewed, err := h.profileService.MarkClassViewed(c.Request().Context(), userID, req.ClassID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Data: echo.Map{"viewedClasses": viewed}})
}
