package keepalive

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const responseBody = "Attendance bot is running"

// Server is the liveness endpoint hosting platforms poll to keep the process
// alive. It serves a single plain-text page at /.
type Server struct {
	srv *http.Server
}

func NewServer(port int) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", handleRoot)
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(responseBody))
}

// Start serves in the calling goroutine until Close.
func (s *Server) Start() error {
	slog.Info("keepalive server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Close() error {
	return s.srv.Close()
}
