package server

import (
	"net/http"
)

// setupHTTPRoutes configures all HTTP handlers on the server's mux.
// The mux is server-held rather than the default mux so tests can run
// several servers side by side.
func (s *HUDServer) setupHTTPRoutes() {
	s.mux = http.NewServeMux()

	s.mux.HandleFunc("/ws", s.corsMiddleware(s.HandleWebSocket))                        // Viewer WebSocket (snapshots, effects, status, logs)
	s.mux.HandleFunc("/api/events", s.corsMiddleware(s.HandleEvents))                   // Event intake (POST)
	s.mux.HandleFunc("/api/graph", s.corsMiddleware(s.HandleGraph))                     // Current snapshot (GET)
	s.mux.HandleFunc("/api/graph/refresh", s.corsMiddleware(s.HandleGraphRefresh))      // Rebuild + broadcast (POST)
	s.mux.HandleFunc("/api/layout/recompute", s.corsMiddleware(s.HandleLayoutRecompute)) // Forced relayout (POST)
	s.mux.HandleFunc("/api/history", s.corsMiddleware(s.HandleHistory))                 // Paginated recent events (GET)
	s.mux.HandleFunc("/api/agents", s.corsMiddleware(s.HandleAgents))                   // Roster (GET)
	s.mux.HandleFunc("/api/agents/{id}", s.corsMiddleware(s.HandleAgent))               // One agent (GET)
	s.mux.HandleFunc("/api/config", s.corsMiddleware(s.HandleConfig))                   // Runtime configuration (GET/PUT)
	s.mux.HandleFunc("/api/health", s.corsMiddleware(s.HandleHealth))                   // Liveness + gauges (GET)
}

// corsMiddleware adds CORS headers to HTTP responses using configured allowed origins.
// Uses the same origin validation as WebSocket connections (server.allowed_origins config).
func (s *HUDServer) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" && s.checkOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
