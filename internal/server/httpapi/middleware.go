package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/coinledger/internal/server/auth"
)

type ctxKey string

const principalIDKey ctxKey = "principalID"

// withAuth verifies the bearer token and stores the bound user id in the
// request context. The response never reveals why verification failed.
func (s *HTTPServer) withAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), principalIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// principalFromContext returns the verified user id set by withAuth.
func principalFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalIDKey).(string)
	return id, ok
}
