package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
	"wordrush/config"
	"wordrush/domain"
	"wordrush/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var TokenCookie = config.JWTCookie.Name

var (
	ErrMissingTokenStr          = "missing-token"
	ErrExpiredTokenStr          = "expired-token"
	ErrServerTimeoutStr         = "server-timeout"
	ErrInvalidRequestFormatStr  = "bad-request-format"
	ErrInvalidCredentialsStr    = "invalid-credentials"
	ErrUnknownStr               = "unknown-error"
	ErrUsernameAlreadyExistsStr = "username-already-exists"
	ErrWeakPasswordStr          = "weak-password"
	ErrPasswordTooLongStr       = "password-too-long"
	ErrInvalidUsernameFormatStr = "invalid-username-format"
	ErrInvalidDisplayNameStr    = "invalid-display-name"
	ErrAccountCreatedButNoToken = "account-created-but-no-token"
	ErrUnauthenticatedStr       = "unauthenticated"
	ErrBadTokenStr              = "bad-token"
)

type authHandler struct {
	authService  AuthService
	cookieMaxAge time.Duration
	logger       zerolog.Logger
}

func NewAuthHandler(service AuthService, cookieMaxAge time.Duration) *authHandler {
	return &authHandler{
		authService:  service,
		cookieMaxAge: cookieMaxAge,
		logger:       logger.Component("auth"),
	}
}

// redact keeps the header and claims of a token but hides most of its signature.
func redact(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return token
	}
	sig := []rune(parts[2])
	if len(sig) > 10 {
		parts[2] = string(sig[:10]) + strings.Repeat("*", len(sig)-10)
	}
	return strings.Join(parts, ".")
}

func (ah *authHandler) setTokenCookie(ctx *gin.Context, token string) {
	ctx.SetSameSite(http.SameSiteNoneMode)
	c := config.JWTCookie
	ctx.SetCookie(TokenCookie, token, int(ah.cookieMaxAge.Seconds()), c.Path, c.Domain, c.Secure, c.HttpOnly)
}

func (ah *authHandler) requestEvent(ctx *gin.Context, ev *zerolog.Event) *zerolog.Event {
	return ev.Str("ip", ctx.ClientIP()).Str("user_agent", ctx.Request.UserAgent())
}

func (ah *authHandler) RequireAuthMiddleware(trollTime time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(TokenCookie)
		if err != nil {
			ctx.String(http.StatusUnauthorized, ErrMissingTokenStr)
			ctx.Abort()
			return
		}

		id, err := ah.authService.VerifyToken(token)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidSigningAlg),
				errors.Is(err, domain.ErrInvalidTokenSignature),
				errors.Is(err, domain.ErrCorruptedToken):
				ah.requestEvent(ctx, ah.logger.Warn()).Err(err).Str("token", redact(token)).
					Msg("suspicious token attempt")
				time.Sleep(trollTime)
				ctx.Status(http.StatusInternalServerError)

			case errors.Is(err, domain.ErrExpiredToken):
				ah.logger.Info().Str("ip", ctx.ClientIP()).Msg("token expired")
				ctx.String(http.StatusUnauthorized, ErrExpiredTokenStr)

			default:
				ah.requestEvent(ctx, ah.logger.Error()).Err(err).Str("token", redact(token)).
					Msg("internal auth error")
				ctx.String(http.StatusUnauthorized, ErrUnknownStr)
			}
			ctx.Abort()
			return
		}

		ctx.Set("id", id)
		ctx.Next()
	}
}

func (ah *authHandler) LoginHandler(ctx *gin.Context) {
	var loginCredentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := ctx.ShouldBindJSON(&loginCredentials); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	token, err := ah.authService.Login(ctx.Request.Context(), loginCredentials.Username, loginCredentials.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrIncorrectPassword), errors.Is(err, domain.ErrUserNotFound):
			ctx.String(http.StatusUnauthorized, ErrInvalidCredentialsStr)
		case errors.Is(err, context.DeadlineExceeded):
			ctx.String(http.StatusGatewayTimeout, ErrServerTimeoutStr)
		case errors.Is(err, context.Canceled):
			ctx.Status(499)
		default:
			ah.requestEvent(ctx, ah.logger.Error()).Err(err).
				Str("username", loginCredentials.Username).
				Int("password_len", utf8.RuneCountInString(loginCredentials.Password)).
				Msg("login failed unexpectedly")
			ctx.String(http.StatusInternalServerError, ErrUnknownStr)
		}
		ctx.Abort()
		return
	}

	ah.setTokenCookie(ctx, token)
	ctx.Status(http.StatusOK)
}

func (ah *authHandler) SignupHandler(ctx *gin.Context) {
	var signupCredentials struct {
		Username    string `json:"username"`
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
	}

	if err := ctx.ShouldBindJSON(&signupCredentials); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	token, err := ah.authService.Signup(ctx.Request.Context(),
		signupCredentials.Username, signupCredentials.Password, signupCredentials.DisplayName)

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateUsername):
			ctx.String(http.StatusConflict, ErrUsernameAlreadyExistsStr)

		case errors.Is(err, ErrWeakPassword):
			ctx.String(http.StatusBadRequest, ErrWeakPasswordStr)

		case errors.Is(err, ErrPasswordTooLong):
			ctx.String(http.StatusBadRequest, ErrPasswordTooLongStr)

		case errors.Is(err, ErrInvalidUsernameFormat):
			ctx.String(http.StatusBadRequest, ErrInvalidUsernameFormatStr)

		case errors.Is(err, ErrInvalidDisplayName):
			ctx.String(http.StatusBadRequest, ErrInvalidDisplayNameStr)

		case errors.Is(err, context.DeadlineExceeded):
			ctx.String(http.StatusGatewayTimeout, ErrServerTimeoutStr)

		case errors.Is(err, context.Canceled):
			ctx.Status(499) // http code for "Client Closed Request"

		case errors.Is(err, domain.UnexpectedTokenGenerationError):
			ah.requestEvent(ctx, ah.logger.Error()).Err(err).
				Str("username", signupCredentials.Username).
				Msg("account created but token generation failed")
			ctx.String(http.StatusInternalServerError, ErrAccountCreatedButNoToken)

		default:
			ah.requestEvent(ctx, ah.logger.Error()).Err(err).
				Str("username", signupCredentials.Username).
				Int("password_len", utf8.RuneCountInString(signupCredentials.Password)).
				Msg("signup failed unexpectedly")
			ctx.String(http.StatusInternalServerError, ErrUnknownStr)
		}
		ctx.Abort()
		return
	}

	ah.setTokenCookie(ctx, token)
	ctx.Status(http.StatusCreated)
}

func (ah *authHandler) RefreshSessionHandler(ctx *gin.Context) {
	token, err := ctx.Cookie(TokenCookie)
	if err != nil {
		ctx.String(http.StatusUnauthorized, ErrUnauthenticatedStr)
		return
	}

	id, err := ah.authService.VerifyToken(token)
	if err != nil {
		ah.requestEvent(ctx, ah.logger.Warn()).Err(err).Str("token", redact(token)).
			Msg("refresh with invalid token")
		ctx.String(http.StatusUnauthorized, ErrBadTokenStr)
		return
	}

	newToken, err := ah.authService.GenerateToken(id)
	if err != nil {
		ah.requestEvent(ctx, ah.logger.Error()).Err(err).Str("user_id", id).
			Msg("refresh token generation failed")
		ctx.Status(http.StatusInternalServerError)
		return
	}

	ah.setTokenCookie(ctx, newToken)
	ctx.Status(http.StatusOK)
}

func (ah *authHandler) LogoutHandler(ctx *gin.Context) {
	c := config.JWTCookie
	ctx.SetCookie(TokenCookie, "", -1, c.Path, c.Domain, c.Secure, c.HttpOnly)
}
