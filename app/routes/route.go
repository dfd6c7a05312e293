package routes

import (
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/yfeng-ca/fengdock/app/configs"
	"github.com/yfeng-ca/fengdock/app/handlers"
	"github.com/yfeng-ca/fengdock/app/middlewares"
	"github.com/yfeng-ca/fengdock/app/repositories"
	"github.com/yfeng-ca/fengdock/app/services"
	"github.com/yfeng-ca/fengdock/app/utils/renderer"
	utilsessions "github.com/yfeng-ca/fengdock/app/utils/sessions"
	"gorm.io/gorm"
)

// NewRouter wires repositories, services and handlers onto the mux router.
// Write routes sit behind the manage token middleware; browser pages under
// /board/manage additionally carry CSRF protection.
func NewRouter(db *gorm.DB, env configs.ENV, watchService *services.WatchService) *mux.Router {
	router := mux.NewRouter()
	rnd := renderer.New()

	linkRepo := repositories.NewLinkRepository(db)
	mindmapRepo := repositories.NewMindMapRepository(db)

	// Without cookie keys the manage routes still work, just token-per-request.
	var sessionStore utilsessions.SessionStore
	if keys, err := configs.LoadSessionKeysFromEnv(); err == nil {
		sessionStore = utilsessions.NewCookieSessionStore(keys.AuthKey, keys.EncKey)
	}
	requireToken := middlewares.RequireManageToken(env.PrivatePasswordHash, sessionStore)

	linkHandler := handlers.NewLinkHandler(linkRepo, rnd)
	watchHandler := handlers.NewWatchHandler(watchService, rnd)
	mindmapHandler := handlers.NewMindMapHandler(mindmapRepo, rnd)
	pageHandler := handlers.NewPageHandler(linkRepo, watchService, rnd)

	// Pages.
	router.HandleFunc("/", pageHandler.Home).Methods("GET")
	router.HandleFunc("/healthz", pageHandler.Healthz).Methods("GET")
	router.HandleFunc("/board", pageHandler.Board).Methods("GET")
	router.HandleFunc("/tools/json-viewer", pageHandler.JSONViewer).Methods("GET", "HEAD")

	manage := router.PathPrefix("/board/manage").Subrouter()
	manage.Use(requireToken)
	if env.CSRFKey != "" {
		manage.Use(csrf.Protect([]byte(env.CSRFKey), csrf.Path("/board/manage")))
	}
	manage.HandleFunc("", pageHandler.Manage).Methods("GET", "POST")

	// Link API. Reads are public, writes are token gated.
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/links", linkHandler.List).Methods("GET")
	api.HandleFunc("/links/{id}", linkHandler.Get).Methods("GET")
	api.HandleFunc("/links/click", linkHandler.Click).Methods("POST")

	linkWrites := api.PathPrefix("/links").Subrouter()
	linkWrites.Use(requireToken)
	linkWrites.HandleFunc("", linkHandler.Create).Methods("POST")
	linkWrites.HandleFunc("/{id}", linkHandler.Update).Methods("PATCH", "PUT")
	linkWrites.HandleFunc("/{id}", linkHandler.Delete).Methods("DELETE")

	// Watch API.
	api.HandleFunc("/loblaws/board", watchHandler.Board).Methods("GET")
	api.HandleFunc("/loblaws/watches", watchHandler.List).Methods("GET")
	api.HandleFunc("/loblaws/watches/{id}", watchHandler.Get).Methods("GET")

	watchWrites := api.PathPrefix("/loblaws/watches").Subrouter()
	watchWrites.Use(requireToken)
	watchWrites.HandleFunc("", watchHandler.Create).Methods("POST")
	watchWrites.HandleFunc("/refresh", watchHandler.RefreshAll).Methods("POST")
	watchWrites.HandleFunc("/{id}", watchHandler.Update).Methods("PATCH", "PUT")
	watchWrites.HandleFunc("/{id}", watchHandler.Delete).Methods("DELETE")
	watchWrites.HandleFunc("/{id}/refresh", watchHandler.Refresh).Methods("POST")

	// Mind map documents are private shared state, so reads are gated too.
	mindmaps := api.PathPrefix("/mindmaps").Subrouter()
	mindmaps.Use(requireToken)
	mindmaps.HandleFunc("", mindmapHandler.List).Methods("GET")
	mindmaps.HandleFunc("", mindmapHandler.Create).Methods("POST")
	mindmaps.HandleFunc("/{id}", mindmapHandler.Get).Methods("GET")
	mindmaps.HandleFunc("/{id}", mindmapHandler.Update).Methods("PATCH", "PUT")
	mindmaps.HandleFunc("/{id}", mindmapHandler.Delete).Methods("DELETE")

	router.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	return router
}
