package server

import (
	"net/http"
	"time"
)

// New wraps the handler in an http.Server with conservative timeouts.
// Upload bodies can be large, so the write timeout leaves room for the
// slowest analyzer budget on top of network transfer.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
