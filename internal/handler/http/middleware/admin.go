package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/auth"
	"github.com/cmlabs-hris/stamp-correction/internal/handler/http/response"
)

// AdminOnly must run after AuthRequired.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := auth.ActorFromContext(r.Context()).RequireAdmin(); err != nil {
			response.HandleError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
