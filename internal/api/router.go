package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/quantlens/stockpulse/internal/api/handlers"
	"github.com/quantlens/stockpulse/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	securityHandler *handlers.SecurityHandler,
	holdingHandler *handlers.HoldingHandler,
	resultHandler *handlers.ResultHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Securities
	api.HandleFunc("/securities", securityHandler.List).Methods("GET")
	api.HandleFunc("/securities/undervalued", securityHandler.Undervalued).Methods("GET")
	api.HandleFunc("/securities/refresh", securityHandler.Refresh).Methods("POST")
	api.HandleFunc("/securities/score", securityHandler.Score).Methods("POST")
	api.HandleFunc("/securities/{symbol}", securityHandler.Get).Methods("GET")
	api.HandleFunc("/securities/{symbol}/track", securityHandler.Track).Methods("POST")
	api.HandleFunc("/securities/{symbol}/untrack", securityHandler.Untrack).Methods("POST")

	// Institutional holdings
	api.HandleFunc("/holdings/refresh", holdingHandler.Refresh).Methods("POST")
	api.HandleFunc("/holdings/significant", holdingHandler.Significant).Methods("GET")
	api.HandleFunc("/holdings/{symbol}", holdingHandler.Get).Methods("GET")

	// Quarterly results
	api.HandleFunc("/results/generate", resultHandler.Generate).Methods("POST")
	api.HandleFunc("/results/upcoming", resultHandler.Upcoming).Methods("GET")
	api.HandleFunc("/results/{symbol}", resultHandler.Get).Methods("GET")
	api.HandleFunc("/results/{symbol}/{quarter}/announce", resultHandler.Announce).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "stockpulse-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
