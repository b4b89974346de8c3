package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/colorfulnotion/cairotrace/log"
	"github.com/colorfulnotion/cairotrace/tracererrors"
)

// Server exposes a Service over HTTP and websocket.
type Server struct {
	cfg     Config
	svc     *Service
	version VersionInfo
	hub     *Hub
	mux     *http.ServeMux
}

func NewServer(cfg Config, svc *Service, version VersionInfo) *Server {
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		version: version,
		hub:     newHub(),
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("/run", s.handleRun)
	s.mux.HandleFunc("/version", s.handleVersion)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/ws", s.handleWebsocket)
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for at most cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info(module, "runner server started", "address", listener.Addr().String(), "compiler", s.svc.CompilerVersion())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.hub.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info(module, "runner server stopped")
	return nil
}

func setCorsHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn(module, "failed to write response", "err", err)
	}
}

func writeResponseError(w http.ResponseWriter, rerr *ResponseError) {
	writeJSON(w, rerr.Status, rerr)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	setCorsHeaders(w)
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		writeResponseError(w, badRequest(fmt.Errorf("%w: %v", tracererrors.ErrInvalidPayload, err), s.svc.CompilerVersion()))
		return
	}
	payload, rerr := s.svc.DecodePayload(raw)
	if rerr != nil {
		writeResponseError(w, rerr)
		return
	}
	body, rerr := s.svc.Run(r.Context(), payload)
	if rerr != nil {
		writeResponseError(w, rerr)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	setCorsHeaders(w)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.version)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok")
}
