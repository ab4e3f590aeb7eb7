package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/mhobbs/tradelog/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Auth
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/auth/change-password", s.handleChangePassword)

	// Trades
	mux.HandleFunc("/api/trades/bulk-delete", s.handleTradeBulkDelete)
	mux.HandleFunc("/api/trades/", s.routeTrades)
	mux.HandleFunc("/api/trades", s.handleTradesRoot)

	// Achievements
	mux.HandleFunc("/api/achievements/", s.routeAchievements)
	mux.HandleFunc("/api/achievements", s.handleAchievementsRoot)

	// About text
	mux.HandleFunc("/api/fetch-about", s.handleAbout)

	// Market data proxies
	mux.HandleFunc("/api/search-symbol", s.handleSearchSymbol)
	mux.HandleFunc("/api/history", s.handleHistory)
}

// routeTrades dispatches /api/trades/{id} and /api/trades/{id}/sparkline.png.
func (s *Server) routeTrades(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/trades/")
	if path == "" {
		s.handleTradesRoot(w, r)
		return
	}

	if strings.HasSuffix(path, "/sparkline.png") {
		id := strings.TrimSuffix(path, "/sparkline.png")
		s.handleTradeSparkline(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	s.handleTradeByID(w, r, path)
}

// routeAchievements dispatches /api/achievements/{id}.
func (s *Server) routeAchievements(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/achievements/")
	if path == "" {
		s.handleAchievementsRoot(w, r)
		return
	}
	if strings.Contains(path, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	s.handleAchievementByID(w, r, path)
}

// --- System handlers ---

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
