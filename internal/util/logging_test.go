package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"kpp-siprima/internal/model"
	"net/http"
	"net/http/httptest"
	"testing"
)

type errorEnvelope struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusForKind(model.KindValidation))
	assert.Equal(t, http.StatusNotFound, StatusForKind(model.KindNotFound))
	assert.Equal(t, http.StatusConflict, StatusForKind(model.KindConflict))
	assert.Equal(t, http.StatusUnauthorized, StatusForKind(model.KindUnauthorized))
	assert.Equal(t, http.StatusInternalServerError, StatusForKind(model.KindProcessing))
}

func TestHandleServiceError_KeepsKindThroughWrapping(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("[WorkflowService] sign: %w", model.NewConflictError("document is already signed", nil))

	HandleServiceError(rec, err)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "ConflictError", env.Error.Kind)
	assert.Equal(t, "document is already signed", env.Error.Message)
}

func TestHandleServiceError_UnknownErrorIsHidden(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleServiceError(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "ProcessingError", env.Error.Kind)
	assert.Equal(t, "internal server error", env.Error.Message)
}

func TestLogError_LogsAndWraps(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	cause := model.NewNotFoundError("document not found", nil)
	err := LogError("[DocumentRepository] get document", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, model.KindNotFound, model.KindOf(err))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "[DocumentRepository] get document", logs.All()[0].Message)
}

func TestNewLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	logger, err := NewLogger("production")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))

	dev, err := NewLogger("development")
	require.NoError(t, err)
	assert.NotNil(t, dev)
}
