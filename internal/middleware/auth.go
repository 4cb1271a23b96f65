package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"elearning/internal/auth"
	apperrors "elearning/internal/errors"
	"elearning/internal/metrics"
)

const (
	// HeaderToken carries the access token the client should use from now on.
	HeaderToken = "Token"
	// HeaderRefreshToken carries the refresh token on every authenticated request.
	HeaderRefreshToken = "refresh_token"

	identityKey = "identity"
)

// TokenVerifier verifies access and refresh tokens and mints access tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
	IssueAccess(id auth.Identity) (string, error)
}

// AdminChecker reports whether a user currently holds the admin role.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

// Authenticate requires both an access token (Authorization: Bearer) and a
// refresh token (refresh_token header).
//
// A valid access token lets the request through and is echoed back in the
// Token header. When the access token is rejected but the refresh token is
// valid, a new access token is returned in the Token header and the request
// is answered 403 without reaching the handler; the client retries with the
// new token. Anything else is a 401.
func Authenticate(tokens TokenVerifier) echo.MiddlewareFunc {
	access := echojwt.WithConfig(echojwt.Config{
		ContextKey:  identityKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(_ echo.Context, token string) (interface{}, error) {
			return tokens.Verify(token)
		},
		SuccessHandler: func(c echo.Context) {
			c.Response().Header().Set(HeaderToken, bearerToken(c))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var extractErr *echojwt.TokenExtractionError
			if errors.As(err, &extractErr) {
				metrics.RecordAuthRejection("missing")
				return unauthorized("authorization token is missing")
			}
			return rotate(c, tokens)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		checked := access(next)
		return func(c echo.Context) error {
			if bearerToken(c) == "" || c.Request().Header.Get(HeaderRefreshToken) == "" {
				metrics.RecordAuthRejection("missing")
				return unauthorized("authorization token is missing")
			}
			return checked(c)
		}
	}
}

// rotate answers a request whose access token was rejected.
func rotate(c echo.Context, tokens TokenVerifier) error {
	identity, err := tokens.Verify(c.Request().Header.Get(HeaderRefreshToken))
	if err != nil {
		metrics.RecordAuthRejection("invalid")
		return unauthorized("invalid token")
	}

	fresh, err := tokens.IssueAccess(identity)
	if err != nil {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("failed to mint access token")
		httpErr := apperrors.MapErrorToHTTP(apperrors.Internal(err))
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	metrics.RecordTokenRotation()
	zerolog.Ctx(c.Request().Context()).Debug().Uint("user_id", identity.ID).Msg("access token rotated")
	c.Response().Header().Set(HeaderToken, fresh)
	return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{Message: "access token expired"})
}

// IdentityFrom returns the identity attached by Authenticate.
func IdentityFrom(c echo.Context) (auth.Identity, bool) {
	id, ok := c.Get(identityKey).(auth.Identity)
	return id, ok
}

// RequireAdmin must run after Authenticate. It reloads the caller on every
// request so role changes apply immediately.
func RequireAdmin(checker AdminChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				return unauthorized("authorization token is missing")
			}

			isAdmin, err := checker.IsAdmin(c.Request().Context(), identity.ID)
			if err != nil {
				if apperrors.KindOf(err) == apperrors.KindInternal {
					zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("admin check failed")
				}
				httpErr := apperrors.MapErrorToHTTP(err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			if !isAdmin {
				return unauthorized("user is not an admin")
			}
			return next(c)
		}
	}
}

func unauthorized(message string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{Message: message})
}

func bearerToken(c echo.Context) string {
	const prefix = "Bearer "
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
