package httpapi

import "net/http"

// handleStatus is the liveness probe: always 200 when the process answers,
// no auth required (spec §4.4).
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
