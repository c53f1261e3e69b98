package shared_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserIDContext(t *testing.T) {
	_, ok := shared.UserIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = shared.UserIDFromContext(shared.WithUserID(context.Background(), uuid.Nil))
	assert.False(t, ok, "nil user is anonymous")

	id := uuid.New()
	got, ok := shared.UserIDFromContext(shared.WithUserID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestTraceID(t *testing.T) {
	assert.Empty(t, shared.GetTraceID(context.Background()))

	id := shared.NewTraceID()
	assert.Len(t, id, 32)
	assert.NotEqual(t, id, shared.NewTraceID())
	assert.Equal(t, id, shared.GetTraceID(shared.WithTraceID(context.Background(), id)))
}

func TestRespondWithErrorAndLog(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
	req = req.WithContext(shared.WithTraceID(req.Context(), "trace-123"))
	rec := httptest.NewRecorder()

	shared.RespondWithErrorAndLog(rec, req, http.StatusInternalServerError, "An unexpected error occurred",
		errors.New("dial postgres://u:p@db/answers"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body shared.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "An unexpected error occurred", body.Error)
	assert.Equal(t, "trace-123", body.TraceID)
	assert.NotContains(t, rec.Body.String(), "postgres")
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Kind string `json:"kind" validate:"required,oneof=up down"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"kind":"up"}`},
		{name: "empty", body: ``, wantErr: true},
		{name: "unknown field", body: `{"kind":"up","extra":1}`, wantErr: true},
		{name: "trailing object", body: `{"kind":"up"}{"kind":"down"}`, wantErr: true},
		{name: "malformed", body: `{"kind":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := shared.DecodeJSON(httptest.NewRecorder(), req, &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "up", p.Kind)
		})
	}

	t.Run("empty body sentinel", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		var p payload
		assert.ErrorIs(t, shared.DecodeJSON(httptest.NewRecorder(), req, &p), shared.ErrEmptyBody)
	})

	t.Run("validation", func(t *testing.T) {
		assert.NoError(t, shared.ValidateRequest(payload{Kind: "down"}))
		assert.Error(t, shared.ValidateRequest(payload{Kind: "sideways"}))
		assert.Error(t, shared.ValidateRequest(payload{}))
	})
}
