package web

import (
	"net/http"

	"github.com/N474NR4/UCHI-Subaru/internal/imaging"
	"github.com/N474NR4/UCHI-Subaru/internal/store"
	webembed "github.com/N474NR4/UCHI-Subaru/web"
)

// NewRouter creates the web page router with all page routes registered.
// Uploaded images are served from images when it is non-nil.
func NewRouter(s *store.Store, images *imaging.Library) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	srv := &Server{
		Store:     s,
		Images:    images,
		Templates: templates,
	}

	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	if images != nil {
		mux.Handle("GET "+images.Prefix, images.Handler())
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/items", http.StatusSeeOther)
	})

	mux.HandleFunc("GET /items", srv.ItemsPage)
	mux.HandleFunc("GET /items/new", srv.ItemNewPage)
	mux.HandleFunc("GET /items/{id}/edit", srv.ItemEditPage)
	mux.HandleFunc("POST /items", srv.ItemSubmit)
	mux.HandleFunc("POST /items/cancel", srv.ItemCancel)
	mux.HandleFunc("POST /items/clear", srv.ItemsClear)
	mux.HandleFunc("POST /items/{id}/delete", srv.ItemDelete)

	return mux, nil
}
