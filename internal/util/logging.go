package util

import (
	"encoding/json"
	"fmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"kpp-siprima/internal/model"
	"net/http"
	"os"
)

// NewLogger : production JSON logger or colored development logger, LOG_LEVEL overrides the level
func NewLogger(environment string) (*zap.Logger, error) {
	var cfg zap.Config

	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(logLevel)); err == nil {
			cfg.Level.SetLevel(level)
		}
	}

	return cfg.Build()
}

// LogError : logs message with err and returns them wrapped, the kind of err is preserved
func LogError(message string, err error) error {
	zap.L().Error(message, zap.Error(err))
	return fmt.Errorf("%s: %w", message, err)
}

// StatusForKind : HTTP status for an error kind
func StatusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	case model.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// HandleError : writes the {error:{kind,message}} payload
func HandleError(w http.ResponseWriter, kind model.ErrorKind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusForKind(kind))

	payload := struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}{}
	payload.Error.Kind = string(kind)
	payload.Error.Message = message

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("writing error response", zap.Error(err))
	}
}

// HandleServiceError : maps a service error to its payload, unknown errors become ProcessingError
func HandleServiceError(w http.ResponseWriter, err error) {
	kind := model.KindOf(err)
	message := model.MessageOf(err)
	if kind == "" {
		kind = model.KindProcessing
		message = "internal server error"
	}
	HandleError(w, kind, message)
}

// WriteJSON : writes v with the given status
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("writing response", zap.Error(err))
	}
}
