package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"go.uber.org/zap"

	"wellness-backend/pkg/api"
)

// TokenVerifier resolves a bearer token to a user ID.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// Authenticator puts the caller's user ID into the request context. Behind
// API Gateway the Lambda authorizer's "sub" claim is trusted; otherwise the
// bearer token is checked with verifier.
func Authenticator(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := authorizerSubject(r.Context()); ok {
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				api.Error(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if verifier == nil {
				logger.Error("No token verifier configured")
				api.Error(w, http.StatusServiceUnavailable, "Authentication unavailable")
				return
			}

			userID, err := verifier.VerifyToken(r.Context(), token)
			if err != nil || userID == "" {
				logger.Debug("Authentication failed",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err),
				)
				api.Error(w, http.StatusUnauthorized, "Invalid authentication")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func authorizerSubject(ctx context.Context) (string, bool) {
	proxyCtx, ok := core.GetAPIGatewayV2ContextFromContext(ctx)
	if !ok || proxyCtx.Authorizer == nil || proxyCtx.Authorizer.Lambda == nil {
		return "", false
	}
	sub, ok := proxyCtx.Authorizer.Lambda["sub"].(string)
	return sub, ok && sub != ""
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
