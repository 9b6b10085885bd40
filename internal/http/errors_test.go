package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/procurehub/ui-api/internal/errors"
)

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code apperrors.ErrorCode
		want int
	}{
		{apperrors.ErrCodeNotFound, http.StatusNotFound},
		{apperrors.ErrCodeConflict, http.StatusConflict},
		{apperrors.ErrCodeForeignKey, http.StatusConflict},
		{apperrors.ErrCodeValidation, http.StatusBadRequest},
		{apperrors.ErrCodeUnauthorized, http.StatusUnauthorized},
		{apperrors.ErrCodeForbidden, http.StatusForbidden},
		{apperrors.ErrCodeRateLimited, http.StatusTooManyRequests},
		{apperrors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{apperrors.ErrCodeInternal, http.StatusInternalServerError},
		{apperrors.ErrCodeCanceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForCode(tt.code), "code %s", tt.code)
	}
}

func TestWriteServiceError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteServiceError(rec, apperrors.Forbidden("only clients may post RFQs"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"forbidden"`)
	assert.Contains(t, rec.Body.String(), "only clients may post RFQs")
}

func TestWriteServiceError_FieldIncluded(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteServiceError(rec, apperrors.ValidationField("country", "must be a two-letter code"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"country"`)
}

func TestWriteServiceError_OpaqueForUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteServiceError(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestWriteServiceError_ClassifiesDatabaseErrors(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteServiceError(rec, fmt.Errorf("load profile: %w", context.DeadlineExceeded))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "timed out")

	rec = httptest.NewRecorder()
	WriteServiceError(rec, &pgconn.PgError{
		Code:   pgerrcode.UniqueViolation,
		Detail: `Key (email)=(buyer@acme.example) already exists.`,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"email"`)
}

func TestWriteServiceError_WrappedAppError(t *testing.T) {
	rec := httptest.NewRecorder()

	err := apperrors.Wrap(errors.New("row missing"), apperrors.ErrCodeNotFound, "RFQ not found")
	WriteServiceError(rec, err)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "RFQ not found")
}
