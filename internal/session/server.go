package session

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/knobs/internal/host"
	"github.com/san-kum/knobs/internal/metrics"
)

// Server exposes the websocket host channel and, optionally, /metrics.
type Server struct {
	addr   string
	hub    *host.Hub
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer mounts hub at wsPath. A nil registry disables /metrics.
func NewServer(addr, wsPath string, hub *host.Hub, reg *prom.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle(wsPath, hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if reg != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(reg))
	}
	return &Server{addr: addr, hub: hub, mux: mux, logger: logger}
}

func (s *Server) Handler() http.Handler { return s.mux }

// Run serves until ctx is canceled. The hub loop runs alongside and stops
// with it.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}

	hubCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.hub.Run(hubCtx)

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("host server listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
