// Package server exposes the authenticated JSON API over the auth
// service and the secrets gateway.
package server

import (
	"net/http"
	"time"
)

type Config struct {
	ListenAddr string
}

type Server struct {
	cfg Config
	h   http.Handler
}

func New(cfg Config, h http.Handler) *Server {
	return &Server{cfg: cfg, h: h}
}

func (s *Server) ListenAndServe() error {
	httpSrv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return httpSrv.ListenAndServe()
}
