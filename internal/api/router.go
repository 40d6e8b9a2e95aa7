package api

import (
	"net/http"

	"github.com/N474NR4/UCHI-Subaru/internal/store"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(s *store.Store) http.Handler {
	mux := http.NewServeMux()

	items := &ItemsHandler{Store: s}

	mux.HandleFunc("GET /api/health", items.Health)

	mux.HandleFunc("GET /api/items", items.List)
	mux.HandleFunc("POST /api/items", items.Create)
	mux.HandleFunc("DELETE /api/items", items.Clear)
	mux.HandleFunc("GET /api/items/{id}", items.Get)
	mux.HandleFunc("PUT /api/items/{id}", items.Update)
	mux.HandleFunc("DELETE /api/items/{id}", items.Delete)

	return mux
}
