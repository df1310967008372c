package gatewaytwin

import (
	"net/http/httptest"
)

// Server is a twin listening on a loopback port.
type Server struct {
	*Twin
	srv *httptest.Server
}

// Start serves twin on a free loopback port until Close.
func Start(twin *Twin) *Server {
	return &Server{Twin: twin, srv: httptest.NewServer(twin)}
}

// URL is the base URL to hand to the clients.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close stops the listener.
func (s *Server) Close() {
	s.srv.Close()
}
