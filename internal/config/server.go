package config

import (
	"fmt"
	"net/http"
	"time"
)

// NewHTTPServer creates and returns a configured *http.Server listening on the given port.
func NewHTTPServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}
}
