package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"elearning/internal/service"
)

// AuthHandler handles account lifecycle endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	LastName string `json:"last_name" validate:"required"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyRequest carries the code sent by email.
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"verification_code" validate:"required"`
}

// EmailRequest carries a single email address.
type EmailRequest struct {
	Email string `json:"email" query:"email" validate:"required,email"`
}

// RecoverPasswordRequest sets a new password with a recovery code.
type RecoverPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"verification_code" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates an unverified account and emails a verification code
// @Tags auth
// @Accept json
// @Param request body RegisterRequest true "Registration data"
// @Success 201
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		LastName: req.LastName,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

// Verify godoc
// @Summary Verify an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Email and code"
// @Success 200 {object} Response{data=service.Session}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/verify [post]
func (h *AuthHandler) Verify(c echo.Context) error {
	var req VerifyRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	session, err := h.authService.Verify(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Message: "account verified", Data: session})
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} Response{data=service.Session}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	session, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Data: session})
}

// ForgotPassword godoc
// @Summary Request a password recovery code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body EmailRequest true "Account email"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/forgotPassword [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req EmailRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.authService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Message: "a recovery code has been sent to your email"})
}

// RecoverPassword godoc
// @Summary Set a new password using a recovery code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RecoverPasswordRequest true "Email, code and new password"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/recoveryPassword [post]
func (h *AuthHandler) RecoverPassword(c echo.Context) error {
	var req RecoverPasswordRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.authService.RecoverPassword(c.Request().Context(), req.Email, req.Code, req.Password); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Message: "password updated"})
}

// ResendCode godoc
// @Summary Send a new verification code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body EmailRequest true "Account email"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/resendCode [post]
func (h *AuthHandler) ResendCode(c echo.Context) error {
	var req EmailRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.authService.ResendCode(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Message: "a new code has been sent to your email"})
}
