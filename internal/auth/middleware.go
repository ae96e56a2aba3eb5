package auth

import (
	"net/http"
	"time"
)

// SessionMiddleware renews the session cookie once it is past half its
// lifetime. Requests without a valid session pass through untouched since
// visitors may use the API anonymously.
func (h *AuthHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(TokenCookie)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		userID, exp, err := h.parseToken(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		if time.Until(exp) < TokenDuration/2 {
			if newToken, err := h.GenerateToken(userID); err == nil {
				setTokenCookie(w, newToken)
			}
		}
		next.ServeHTTP(w, r)
	})
}
