package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("changing status: %w", Forbidden())

	assert.Equal(t, KindForbidden, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindForbidden))
	assert.Equal(t, KindInternal, KindOf(errors.New("dial tcp: refused")))
	assert.False(t, IsKind(nil, KindInternal))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("duplicate entry")
	err := Internal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, GenericFailureMessage, err.Message)
}

func TestFieldErrors(t *testing.T) {
	fe := FieldErrors{}
	assert.False(t, fe.HasErrors())

	fe.Add("phone", "bad format")
	fe.Add("name", "too short")
	fe.Add("name", "too long")

	assert.True(t, fe.HasErrors())
	assert.Equal(t, "name: too short; too long, phone: bad format", fe.Error())
}

func TestRespond(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   Kind
		wantRetry  string
	}{
		{"validation", Field("phone", "Неверный формат телефона"), fiber.StatusUnprocessableEntity, KindValidation, ""},
		{"rate limited", RateLimited(42), fiber.StatusTooManyRequests, KindRateLimited, "42"},
		{"unauthenticated", Unauthenticated(""), fiber.StatusUnauthorized, KindUnauthenticated, ""},
		{"forbidden", Forbidden(), fiber.StatusForbidden, KindForbidden, ""},
		{"not found", NotFound(""), fiber.StatusNotFound, KindNotFound, ""},
		{"raw error", errors.New("Error 1062: Duplicate entry"), fiber.StatusInternalServerError, KindInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return Respond(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantRetry, resp.Header.Get(fiber.HeaderRetryAfter))

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			var body struct {
				Success bool `json:"success"`
				Error   Body `json:"error"`
			}
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantKind, body.Error.Kind)
			assert.NotContains(t, string(raw), "Duplicate entry")
		})
	}
}
