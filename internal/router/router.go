package router

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"elearning/internal/config"
	apperrors "elearning/internal/errors"
	"elearning/internal/handler"
	"elearning/internal/logging"
	"elearning/internal/metrics"
	authmw "elearning/internal/middleware"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Auth   *handler.AuthHandler
	Client *handler.ClientHandler
	Admin  *handler.AdminHandler
	Course *handler.CourseHandler
	Class  *handler.ClassHandler
	Data   *handler.DataHandler
	// Upload is nil when object storage is disabled.
	Upload *handler.UploadHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger zerolog.Logger,
	tokens authmw.TokenVerifier,
	admins authmw.AdminChecker,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(metrics.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			authmw.HeaderRefreshToken,
		},
		ExposeHeaders: []string{authmw.HeaderToken},
	}))

	e.Validator = handler.NewValidator()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	ws := e.Group("/ws")

	// Public account lifecycle routes
	authGroup := ws.Group("/auth")
	if cfg.RateLimit.Enabled {
		authGroup.Use(rateLimiter(cfg.RateLimit))
	}
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/verify", h.Auth.Verify)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/forgotPassword", h.Auth.ForgotPassword)
	authGroup.POST("/recoveryPassword", h.Auth.RecoverPassword)
	authGroup.POST("/resendCode", h.Auth.ResendCode)

	// Public catalogue
	data := ws.Group("/data")
	data.GET("/getCourses", h.Data.GetCourses)
	data.GET("/getClasses/:routeId", h.Data.GetClasses)

	authenticated := authmw.Authenticate(tokens)

	client := ws.Group("/client", authenticated)
	client.GET("/getDataUser", h.Client.GetDataUser)
	client.PUT("/editProfile", h.Client.EditProfile)
	client.PUT("/editEmail", h.Client.EditEmail)
	client.PUT("/editPassword", h.Client.EditPassword)
	client.PUT("/markClassAsViewed", h.Client.MarkClassAsViewed)

	admin := ws.Group("/admin", authenticated, authmw.RequireAdmin(admins))
	admin.GET("/getUser", h.Admin.GetUser)
	admin.PUT("/editUserRole", h.Admin.EditUserRole)
	admin.GET("/getTotalUsers", h.Admin.GetTotalUsers)

	admin.POST("/createCourse", h.Course.CreateCourse)
	admin.PUT("/editCourse", h.Course.EditCourse)
	admin.DELETE("/deleteCourse", h.Course.DeleteCourse)
	admin.POST("/updateClassOrder", h.Course.UpdateClassOrder)

	admin.POST("/createClass", h.Class.CreateClass)
	admin.PUT("/editClass", h.Class.EditClass)
	admin.DELETE("/deleteClass", h.Class.DeleteClass)

	if h.Upload != nil {
		admin.POST("/uploadCourseImage", h.Upload.UploadCourseImage)
	}
}

// rateLimiter throttles requests per client IP.
func rateLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RPS),
		Burst:     cfg.Burst,
		ExpiresIn: 3 * time.Minute,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, apperrors.ErrorResponse{Message: "unable to identify client"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, apperrors.ErrorResponse{Message: "too many requests"})
		},
	})
}
