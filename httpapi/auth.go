package httpapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/blobd/blobd/apierror"
)

const authTokenHeader = "X-Auth-Token"

// requireAuth wraps next so that every request must carry an X-Auth-Token
// header matching token, per spec §4.4. Comparison is constant-time to
// avoid leaking the token's contents through response-time side channels.
func requireAuth(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(authTokenHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			writeError(w, apierror.ErrInvalidToken)
			return
		}
		next.ServeHTTP(w, r)
	})
}
