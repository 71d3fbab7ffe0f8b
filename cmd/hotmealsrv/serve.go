package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bearcove/hotmeal"
	"github.com/bearcove/hotmeal/internal/audit"
	"github.com/bearcove/hotmeal/internal/config"
	"github.com/bearcove/hotmeal/internal/watch"
	"github.com/bearcove/hotmeal/internal/wsserver"
)

// server holds the last document pushed for each watched route, so an
// incoming file change can be diffed against what the browser actually has
// rather than re-diffing from scratch every time.
type server struct {
	mu   sync.Mutex
	last map[string]*hotmeal.Document

	hub *wsserver.Hub
	log *audit.Log
	cfg config.Config
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("hotmealsrv: %v; using defaults", err)
		cfg = config.Default()
	}

	auditLog, err := audit.Open(cfg.AuditDB)
	if err != nil {
		return err
	}
	defer auditLog.Close()

	s := &server{
		last: make(map[string]*hotmeal.Document),
		hub:  wsserver.NewHub(),
		log:  auditLog,
		cfg:  cfg,
	}

	w, err := watch.New(cfg.WatchDir, cfg.WatchGlob)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.Handler)
	mux.HandleFunc("/debug/history", s.debugHistoryHandler)
	mux.Handle("/", s.fileHandler())
	httpServer := &http.Server{Addr: cfg.Listen, Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error { return s.pump(gctx, w.Changes) })
	g.Go(func() error {
		log.Printf("hotmealsrv: listening on %s, watching %s/%s", cfg.Listen, cfg.WatchDir, cfg.WatchGlob)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return httpServer.Shutdown(context.Background())
	})

	return g.Wait()
}

// pump reads changed file paths off changes and pushes a diff for each.
func (s *server) pump(ctx context.Context, changes <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-changes:
			if !ok {
				return nil
			}
			if err := s.handleChange(path); err != nil {
				log.Printf("hotmealsrv: %s: %v", path, err)
			}
		}
	}
}

func (s *server) handleChange(path string) error {
	html, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	next, err := hotmeal.Parse(html)
	if err != nil {
		return err
	}

	route := routeFor(s.cfg.WatchDir, path)

	s.mu.Lock()
	prev, had := s.last[route]
	s.last[route] = next
	s.mu.Unlock()

	if !had {
		// First sighting of this route: nothing to diff against yet, so
		// there is nothing useful to push — the browser will get the
		// full page on its next load.
		return nil
	}

	opts := hotmeal.Options{MinHeight: s.cfg.Differ.MinHeight, SimThreshold: s.cfg.Differ.SimThreshold}
	patches := hotmeal.DiffWithOptions(prev, next, opts)
	if len(patches) == 0 {
		return nil
	}

	if err := s.log.Record(route, patches); err != nil {
		log.Printf("hotmealsrv: audit: %v", err)
	}
	return s.hub.Broadcast(route, patches)
}

// debugHistoryHandler serves the n most recently pushed diffs (default 50,
// overridable via ?n=) as a JSON array, for hotmealwatch and other debug
// tooling that would rather query the running server than open its sqlite
// file directly.
func (s *server) debugHistoryHandler(w http.ResponseWriter, r *http.Request) {
	n := 50
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}

	entries, err := s.log.Recent(n)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		log.Printf("hotmealsrv: debug/history: encode: %v", err)
	}
}

// fileHandler serves cfg.WatchDir as-is, unless Minify is set, in which
// case .html responses are parsed and re-serialized through
// hotmeal.SerializeMinified before being written — the same arena
// round-trip the diff pipeline uses, so a minified page stays byte-for-byte
// compatible with the patches later pushed against it.
func (s *server) fileHandler() http.Handler {
	fileServer := http.FileServer(http.Dir(s.cfg.WatchDir))
	if !s.cfg.Minify {
		return fileServer
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if filepath.Ext(r.URL.Path) != ".html" {
			fileServer.ServeHTTP(w, r)
			return
		}
		path := filepath.Join(s.cfg.WatchDir, filepath.Clean(r.URL.Path))
		raw, err := os.ReadFile(path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		doc, err := hotmeal.Parse(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		minified, err := hotmeal.SerializeMinified(doc)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(minified))
	})
}

func routeFor(watchDir, path string) string {
	rel, err := filepath.Rel(watchDir, path)
	if err != nil {
		return path
	}
	return "/" + filepath.ToSlash(rel)
}
