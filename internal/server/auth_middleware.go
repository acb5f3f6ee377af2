package server

import (
	"fmt"
	"net/http"
	"strings"
)

// withAuth requires a bearer token on every route except /health when a
// token or token hash is configured.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.verifier.Enabled() || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		if !s.verifier.Verify(bearerToken(r)) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="subkeep"`)
			err := makeAPIError(http.StatusUnauthorized, "unauthorized", ErrCodeUnauthorized, fmt.Errorf("unauthorized"))
			s.writeErrorReq(w, r, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
