package api

import (
	"net/http"
	"strings"
	"time"

	"travelbooking/pkg/config"
	"travelbooking/pkg/travelapi"
)

// BearerAuth identifies the caller from the travel API access token.
//
// Expected headers:
// - Authorization: Bearer <access JWT>
// - X-Refresh-Token: <refresh JWT> (optional, lets the booking submission refresh an expired access token)
//
// With SESSION_JWT_SECRET set the token is verified locally; otherwise it is only decoded
// and the travel API rejects it on first use. Such callers are marked unverified.
func BearerAuth(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token")
				return
			}
			token := strings.TrimSpace(authz[7:])

			claims, err := travelapi.ParseAccessToken(token, cfg.SessionJWTSecret, time.Now())
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token")
				return
			}
			if claims.UserID == 0 {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "access token has no user")
				return
			}

			c := &Caller{
				UserID:       claims.UserID,
				AccessToken:  token,
				RefreshToken: strings.TrimSpace(r.Header.Get("X-Refresh-Token")),
				Verified:     cfg.SessionJWTSecret != "",
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), c)))
		})
	}
}
