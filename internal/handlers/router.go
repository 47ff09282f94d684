package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers the upload API endpoints.
func NewRouter(v2Handler *V2Handler) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", HealthCheck).Methods(http.MethodGet)

	dev := r.PathPrefix("/v2/api/dev").Subrouter()
	dev.Methods(http.MethodPost).Path("/videos/upload/init").Handler(appHandler(v2Handler.UploadInit))
	dev.Methods(http.MethodPost).Path("/videos/{id:[0-9]+}/upload/confirm").Handler(appHandler(v2Handler.UploadConfirm))
	dev.Methods(http.MethodGet).Path("/videos/{id:[0-9]+}").Handler(appHandler(v2Handler.GetVideo))
	return r
}
