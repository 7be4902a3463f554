package httpapi

import "net/http"

func (s *Server) routes() {
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	s.router.Handle("/blobs", requireAuth(s.authToken, http.HandlerFunc(s.handleUpload))).Methods(http.MethodPost)

	blob := s.router.PathPrefix("/blobs/{ref}").Subrouter()
	blob.Handle("", requireAuth(s.authToken, http.HandlerFunc(s.handleDownload))).Methods(http.MethodGet)
	blob.Handle("", requireAuth(s.authToken, http.HandlerFunc(s.handleHead))).Methods(http.MethodHead)
	blob.Handle("", requireAuth(s.authToken, http.HandlerFunc(s.handleDelete))).Methods(http.MethodDelete)
}
