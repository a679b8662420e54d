package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Authorizer decides whether a verified subject may act as an operator.
type Authorizer interface {
	IsOperator(email string) bool
}

// extractBearerToken returns the token and an error message (empty on success).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return "", "invalid authorization header format"
	}
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

func writeAuthError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// HTTPMiddleware authenticates requests with a bearer token and requires the
// subject to be an operator. When allowQueryToken is set, an access_token
// query parameter is accepted in place of the header (EventSource cannot set
// headers).
func HTTPMiddleware(verifier TokenVerifier, operators Authorizer, logger *zap.Logger, allowQueryToken bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" && allowQueryToken {
				if q := r.URL.Query().Get("access_token"); q != "" {
					token, errMsg = q, ""
				}
			}
			if errMsg != "" {
				writeAuthError(w, http.StatusUnauthorized, errMsg)
				return
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("auth failure", zap.String("reason", "invalid token"),
					zap.String("remote", r.RemoteAddr), zap.Error(err))
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if !operators.IsOperator(subject) {
				logger.Warn("auth failure", zap.String("reason", "not an operator"),
					zap.String("subject", subject), zap.String("remote", r.RemoteAddr))
				writeAuthError(w, http.StatusForbidden, "not an operator")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), subject)))
		})
	}
}
