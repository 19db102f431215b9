package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"wellness-backend/pkg/api"
)

// Recovery turns panics into 500 responses and logs the stack.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("Panic recovered",
						zap.String("request_id", GetRequestID(r.Context())),
						zap.String("path", r.URL.Path),
						zap.Any("panic", rec),
						zap.ByteString("stack", debug.Stack()),
					)
					// Headers already sent means the body is partially written.
					if w.Header().Get("Content-Type") == "" {
						api.Problem(w, http.StatusInternalServerError, api.ErrorResponse{
							Error:     "Internal server error",
							RequestID: GetRequestID(r.Context()),
						})
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
