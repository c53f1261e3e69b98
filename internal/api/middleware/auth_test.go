package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/api/middleware"
	"github.com/phrazzld/answers-api/internal/api/shared"
	"github.com/phrazzld/answers-api/internal/mocks"
	"github.com/phrazzld/answers-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name        string
		header      string
		validateErr error
		claims      *auth.Claims
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "valid token",
			header:     "Bearer good",
			claims:     &auth.Claims{UserID: userID},
			wantStatus: http.StatusOK,
		},
		{
			name:       "lower-case scheme",
			header:     "bearer good",
			claims:     &auth.Claims{UserID: userID},
			wantStatus: http.StatusOK,
		},
		{
			name:        "missing header",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Authorization header required",
		},
		{
			name:        "wrong scheme",
			header:      "Basic dXNlcjpwYXNz",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid authorization format",
		},
		{
			name:        "expired",
			header:      "Bearer old",
			validateErr: auth.ErrExpiredToken,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Token expired",
		},
		{
			name:        "invalid",
			header:      "Bearer forged",
			validateErr: auth.ErrInvalidToken,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid token",
		},
		{
			name:        "unexpected failure",
			header:      "Bearer x",
			validateErr: errors.New("key store offline"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Authentication error",
		},
		{
			name:        "claims without user",
			header:      "Bearer x",
			claims:      &auth.Claims{},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jwtService := &mocks.MockJWTService{Claims: tt.claims, ValidateErr: tt.validateErr}
			var seen uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = middleware.GetUserID(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			middleware.NewAuthMiddleware(jwtService).Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, userID, seen)
				return
			}
			var body shared.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantMessage, body.Error)
		})
	}
}

func TestAuthenticate_PassesTokenToValidator(t *testing.T) {
	var got string
	jwtService := &mocks.MockJWTService{
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			got = token
			return &auth.Claims{UserID: uuid.New()}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")

	middleware.NewAuthMiddleware(jwtService).
		Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "abc.def.ghi", got)
}
