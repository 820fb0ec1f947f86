package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/auth"
	"github.com/cmlabs-hris/stamp-correction/internal/handler/http/response"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired rejects requests without a verified access token and stores
// the caller as an auth.Actor in the request context.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			tokenType, ok := claims[jwt.ClaimType].(string)
			if tokenType != jwt.TokenTypeAccess || !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			employeeID, ok := claims[jwt.ClaimEmployeeID].(string)
			if !ok || employeeID == "" {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			isAdmin, _ := claims[jwt.ClaimIsAdmin].(bool)

			ctx := auth.WithActor(r.Context(), auth.Actor{
				EmployeeID: employeeID,
				IsAdmin:    isAdmin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}
