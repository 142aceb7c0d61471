package api

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/api/recovery"
	"github.com/ab7289/dining-concierge/internal/dialog"
)

// NewRouter creates the HTTP router for the dialog webhook service.
func NewRouter(dispatcher *dialog.Dispatcher, log zerolog.Logger) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)
	router.Use(requestLogger(log))

	dialogHandler := NewDialogHandler(dispatcher, log)
	healthHandler := NewHealthHandler()

	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/dialog", dialogHandler.HandleTurn).Methods("POST")

	return router
}
