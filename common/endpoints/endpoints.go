// Package endpoints serves the admin http endpoints of a running process:
// health, stats, and an optional status document.
package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/fanout/common/stats"
)

// StatusFunc returns a JSON-marshalable snapshot of the process state.
type StatusFunc func() interface{}

func NewTwitterServer(addr string, stats stats.StatsReceiver, status StatusFunc) *TwitterServer {
	return &TwitterServer{
		Addr:   addr,
		Stats:  stats,
		Status: status,
	}
}

type TwitterServer struct {
	Addr   string
	Stats  stats.StatsReceiver
	Status StatusFunc
}

func (s *TwitterServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", helpHandler)
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/admin/metrics.json", s.statsHandler)
	mux.HandleFunc("/admin/status.json", s.statusHandler)
	return mux
}

// Serve listens on Addr until ctx is done.
func (s *TwitterServer) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *TwitterServer) serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()
	log.Infof("Serving http & stats on %s", ln.Addr())
	if err := server.Serve(ln); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Error(w, "Common paths: '/health', '/admin/metrics.json', '/admin/status.json'", http.StatusNotImplemented)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "ok")
}

const (
	contentTypeHdr = "Content-Type"
	contentTypeVal = "application/json; charset=utf-8"
)

func (s *TwitterServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(contentTypeHdr, contentTypeVal)
	pretty := r.URL.Query().Get("pretty") == "true"
	if _, err := w.Write(s.Stats.Render(pretty)); err != nil {
		log.Errorf("writing stats response: %v", err)
	}
}

func (s *TwitterServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	if s.Status == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set(contentTypeHdr, contentTypeVal)
	enc := json.NewEncoder(w)
	if r.URL.Query().Get("pretty") == "true" {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(s.Status()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
