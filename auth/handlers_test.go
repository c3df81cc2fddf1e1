package auth_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"wordrush/auth"
	"wordrush/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, username, password, displayName string) (string, error) {
	args := m.Called(ctx, username, password, displayName)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) VerifyToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) GenerateToken(id string) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

type handlerCase struct {
	description   string
	body          string
	setupMocks    func(m *MockAuthService)
	expectedCode  int
	expectedBody  string
	expectedToken string
}

func runHandlerCases(t *testing.T, pick func(m *MockAuthService) gin.HandlerFunc, cases []handlerCase) {
	gin.SetMode(gin.TestMode)
	for _, tc := range cases {
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()
			mockService := new(MockAuthService)
			if tc.setupMocks != nil {
				tc.setupMocks(mockService)
			}

			server := gin.New()
			server.POST("/endpoint", pick(mockService))

			req := httptest.NewRequest(http.MethodPost, "/endpoint", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			res := httptest.NewRecorder()

			server.ServeHTTP(res, req)

			cookies := res.Result().Cookies()
			token := ""
			if len(cookies) > 0 {
				assert.Equal(t, "token", cookies[0].Name, "Token cookie must be 'token'")
				assert.Equal(t, "/", cookies[0].Path)
				assert.Equal(t, 197, cookies[0].MaxAge, "Cookie max age mismatch")
				token = cookies[0].Value
			}

			assert.Equal(t, tc.expectedCode, res.Code, "HTTP status code mismatch")
			assert.Equal(t, tc.expectedBody, res.Body.String())
			assert.Equal(t, tc.expectedToken, token)

			mockService.AssertExpectations(t)
		})
	}
}

func TestSignupHandler(t *testing.T) {
	t.Parallel()
	exErr := errors.New("example error")

	pick := func(m *MockAuthService) gin.HandlerFunc {
		return auth.NewAuthHandler(m, 197*time.Second).SignupHandler
	}

	runHandlerCases(t, pick, []handlerCase{
		{
			description: "normal success",
			body:        `{"username":"linh", "password":"pass1234", "displayName":"Linh"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "linh", "pass1234", "Linh").Return("tokenhaha", nil)
			},
			expectedCode:  http.StatusCreated,
			expectedToken: "tokenhaha",
		},
		{
			description: "username already exists",
			body:        `{"username":"linh", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "linh", "pass1234", "").Return("", domain.ErrDuplicateUsername)
			},
			expectedCode: http.StatusConflict,
			expectedBody: auth.ErrUsernameAlreadyExistsStr,
		},
		{
			description: "weak password",
			body:        `{"username":"linh", "password":"123"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "linh", "123", "").Return("", auth.ErrWeakPassword)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: auth.ErrWeakPasswordStr,
		},
		{
			description: "password too long",
			body:        `{"username":"linh", "password":"longpass"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "linh", "longpass", "").Return("", auth.ErrPasswordTooLong)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: auth.ErrPasswordTooLongStr,
		},
		{
			description: "invalid username format",
			body:        `{"username":"bad format", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "bad format", "pass1234", "").Return("", auth.ErrInvalidUsernameFormat)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: auth.ErrInvalidUsernameFormatStr,
		},
		{
			description: "invalid display name",
			body:        `{"username":"linh", "password":"pass1234", "displayName":"a very very long display name"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "linh", "pass1234", "a very very long display name").Return("", auth.ErrInvalidDisplayName)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: auth.ErrInvalidDisplayNameStr,
		},
		{
			description:  "non json request",
			body:         `{`,
			expectedCode: http.StatusBadRequest,
			expectedBody: auth.ErrInvalidRequestFormatStr,
		},
		{
			description: "database failure",
			body:        `{"username":"linh", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "linh", "pass1234", "").
					Return("", errors.Join(domain.UnexpectedDatabaseError, exErr))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: auth.ErrUnknownStr,
		},
		{
			description: "token generation failure",
			body:        `{"username":"linh", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "linh", "pass1234", "").
					Return("", errors.Join(domain.UnexpectedTokenGenerationError, exErr))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: auth.ErrAccountCreatedButNoToken,
		},
		{
			description: "timeout error",
			body:        `{"username":"linh", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "linh", "pass1234", "").Return("", context.DeadlineExceeded)
			},
			expectedCode: http.StatusGatewayTimeout,
			expectedBody: auth.ErrServerTimeoutStr,
		},
		{
			description: "client closed request",
			body:        `{"username":"linh", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "linh", "pass1234", "").Return("", context.Canceled)
			},
			expectedCode: 499,
		},
	})
}

func TestLoginHandler(t *testing.T) {
	t.Parallel()
	exErr := errors.New("example error")

	pick := func(m *MockAuthService) gin.HandlerFunc {
		return auth.NewAuthHandler(m, 197*time.Second).LoginHandler
	}

	runHandlerCases(t, pick, []handlerCase{
		{
			description: "successful login",
			body:        `{"username":"linh", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "linh", "pass1234").Return("loginToken123", nil)
			},
			expectedCode:  http.StatusOK,
			expectedToken: "loginToken123",
		},
		{
			description: "user not found",
			body:        `{"username":"ghost", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "ghost", "pass1234").Return("", domain.ErrUserNotFound)
			},
			expectedCode: http.StatusUnauthorized,
			expectedBody: auth.ErrInvalidCredentialsStr,
		},
		{
			description: "incorrect password",
			body:        `{"username":"linh", "password":"wrong"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "linh", "wrong").Return("", auth.ErrIncorrectPassword)
			},
			expectedCode: http.StatusUnauthorized,
			expectedBody: auth.ErrInvalidCredentialsStr,
		},
		{
			description:  "non json request",
			body:         `{`,
			expectedCode: http.StatusBadRequest,
			expectedBody: auth.ErrInvalidRequestFormatStr,
		},
		{
			description: "timeout error",
			body:        `{"username":"linh", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "linh", "pass1234").Return("", context.DeadlineExceeded)
			},
			expectedCode: http.StatusGatewayTimeout,
			expectedBody: auth.ErrServerTimeoutStr,
		},
		{
			description: "hash comparison failure",
			body:        `{"username":"linh", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "linh", "pass1234").
					Return("", errors.Join(domain.UnexpectedPasswordHashComparisonError, exErr))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: auth.ErrUnknownStr,
		},
	})
}

func TestLogoutHandler(t *testing.T) {
	t.Parallel()
	mockService := new(MockAuthService)
	authHandler := auth.NewAuthHandler(mockService, 4*time.Second)
	server := gin.New()

	server.POST("/logout", authHandler.LogoutHandler)
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	res := httptest.NewRecorder()

	server.ServeHTTP(res, req)

	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies, "Must be a cookie here")
	assert.Equal(t, "token", cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0, "token age must be negative so the cookie gets deleted")
}

func TestRequireAuthMiddleware(t *testing.T) {
	t.Parallel()

	setupServer := func(m *MockAuthService) *gin.Engine {
		authHandler := auth.NewAuthHandler(m, 15*time.Second)
		server := gin.New()
		server.Use(authHandler.RequireAuthMiddleware(1 * time.Millisecond))
		server.GET("/play", func(ctx *gin.Context) {
			ctx.String(http.StatusOK, ctx.GetString("id"))
		})
		return server
	}

	serve := func(server *gin.Engine, cookie string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/play", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: "token", Value: cookie})
		}
		res := httptest.NewRecorder()
		server.ServeHTTP(res, req)
		return res
	}

	t.Run("missing cookie", func(t *testing.T) {
		res := serve(setupServer(new(MockAuthService)), "")

		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Equal(t, auth.ErrMissingTokenStr, res.Body.String())
	})

	t.Run("valid token", func(t *testing.T) {
		m := new(MockAuthService)
		m.On("VerifyToken", "valid-token").Return("user-id-123", nil)

		res := serve(setupServer(m), "valid-token")

		assert.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "user-id-123", res.Body.String())
		m.AssertExpectations(t)
	})

	t.Run("expired token", func(t *testing.T) {
		m := new(MockAuthService)
		m.On("VerifyToken", "expired-token").Return("", domain.ErrExpiredToken)

		res := serve(setupServer(m), "expired-token")

		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Equal(t, auth.ErrExpiredTokenStr, res.Body.String())
		m.AssertExpectations(t)
	})

	t.Run("forged token", func(t *testing.T) {
		m := new(MockAuthService)
		m.On("VerifyToken", "a.b.cccccccccccccccc").Return("", domain.ErrInvalidTokenSignature)

		res := serve(setupServer(m), "a.b.cccccccccccccccc")

		assert.Equal(t, http.StatusInternalServerError, res.Code)
		assert.Empty(t, res.Body.String())
		m.AssertExpectations(t)
	})
}

func TestRefreshSessionHandler(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	exErr := errors.New("example error")

	testCases := []struct {
		description   string
		cookieValue   string
		setupMocks    func(m *MockAuthService)
		expectedCode  int
		expectedBody  string
		expectedToken string
	}{
		{
			description:  "Missing token cookie",
			setupMocks:   func(m *MockAuthService) {},
			expectedCode: http.StatusUnauthorized,
			expectedBody: auth.ErrUnauthenticatedStr,
		},
		{
			description: "Invalid or expired token",
			cookieValue: "bad-token",
			setupMocks: func(m *MockAuthService) {
				m.On("VerifyToken", "bad-token").Return("", domain.ErrExpiredToken)
			},
			expectedCode: http.StatusUnauthorized,
			expectedBody: auth.ErrBadTokenStr,
		},
		{
			description: "Token generation failure",
			cookieValue: "valid-token",
			setupMocks: func(m *MockAuthService) {
				m.On("VerifyToken", "valid-token").Return("user-123", nil)
				m.On("GenerateToken", "user-123").Return("", errors.Join(domain.UnexpectedTokenGenerationError, exErr))
			},
			expectedCode: http.StatusInternalServerError,
		},
		{
			description: "Successful refresh",
			cookieValue: "valid-token",
			setupMocks: func(m *MockAuthService) {
				m.On("VerifyToken", "valid-token").Return("user-123", nil)
				m.On("GenerateToken", "user-123").Return("new-refreshed-token", nil)
			},
			expectedCode:  http.StatusOK,
			expectedToken: "new-refreshed-token",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()
			mockService := new(MockAuthService)
			tc.setupMocks(mockService)

			authHandler := auth.NewAuthHandler(mockService, 24*time.Hour)
			server := gin.New()
			server.GET("/refresh", authHandler.RefreshSessionHandler)

			req := httptest.NewRequest(http.MethodGet, "/refresh", nil)
			if tc.cookieValue != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tc.cookieValue})
			}
			res := httptest.NewRecorder()

			server.ServeHTTP(res, req)

			assert.Equal(t, tc.expectedCode, res.Code)
			assert.Equal(t, tc.expectedBody, res.Body.String())

			if tc.expectedToken != "" {
				cookies := res.Result().Cookies()
				if assert.NotEmpty(t, cookies, "Expected a response cookie but got none") {
					assert.Equal(t, "token", cookies[0].Name)
					assert.Equal(t, tc.expectedToken, cookies[0].Value)
				}
			} else {
				assert.Empty(t, res.Result().Cookies())
			}

			mockService.AssertExpectations(t)
		})
	}
}
