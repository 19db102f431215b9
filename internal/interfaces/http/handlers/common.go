// Package handlers implements the HTTP endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"wellness-backend/internal/interfaces/http/middleware"
	"wellness-backend/pkg/api"
	appErrors "wellness-backend/pkg/errors"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// decodeAndValidate reads a JSON body into dst. An empty body leaves dst untouched.
func decodeAndValidate(r *http.Request, dst interface{}, v *Validator) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return appErrors.NewValidation("invalid JSON body: " + err.Error())
	}
	return v.Validate(dst)
}

// handleServiceError maps application errors onto HTTP statuses.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		api.Problem(w, http.StatusBadRequest, api.ErrorResponse{
			Error:     "Validation failed",
			Code:      string(appErrors.ErrorTypeValidation),
			RequestID: requestID,
			Fields:    validationErr.Fields,
		})
		return
	}

	status, message := http.StatusInternalServerError, "An internal error occurred"
	switch appErrors.TypeOf(err) {
	case appErrors.ErrorTypeValidation:
		status, message = http.StatusBadRequest, err.Error()
	case appErrors.ErrorTypeUnauthorized:
		status, message = http.StatusUnauthorized, "Invalid authentication"
	case appErrors.ErrorTypeRateLimit:
		status, message = http.StatusTooManyRequests, "Too many requests"
	case appErrors.ErrorTypeUnavailable:
		status, message = http.StatusServiceUnavailable, "Service temporarily unavailable"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	} else {
		logger.Debug("Request rejected",
			zap.String("request_id", requestID),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	api.Problem(w, status, api.ErrorResponse{
		Error:     message,
		Code:      string(appErrors.TypeOf(err)),
		RequestID: requestID,
	})
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Authentication required")
	}
	return userID, ok
}
