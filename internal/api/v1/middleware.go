package v1

import "net/http"

// requireChat wraps a handler and returns 503 if no AI provider is configured.
func (s *Server) requireChat(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Chat == nil {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "AI provider not configured")
			return
		}
		next(w, r)
	}
}
