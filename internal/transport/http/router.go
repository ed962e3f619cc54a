package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"movietrack/internal/handler"
	"movietrack/internal/httputil"
	authmw "movietrack/internal/transport/http/middleware"
)

const requestTimeout = 30 * time.Second

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler  *handler.AuthHandler
	MovieHandler *handler.MovieHandler
	UserHandler  *handler.UserHandler

	Tokens authmw.TokenVerifier
	Users  authmw.UserLookup

	APIPrefix      string
	AllowedOrigins []string
	AvatarUploads  bool
	Logger         *zap.Logger
}

// NewRouter creates the chi router. API routes live under cfg.APIPrefix;
// /health is always served at the root.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(authmw.RequestLogger(cfg.Logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	api := func(r chi.Router) {
		// Public routes - no authentication required
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/register", cfg.AuthHandler.Register)

		// Protected routes - require authentication
		r.Group(func(r chi.Router) {
			r.Use(authmw.AuthMiddleware(cfg.Tokens, cfg.Users, cfg.Logger.Named("auth")))

			r.Get("/me", cfg.UserHandler.Me)
			if cfg.AvatarUploads {
				r.Post("/me/avatar", cfg.UserHandler.UploadAvatar)
			}

			r.Get("/search", cfg.MovieHandler.Search)
			r.Get("/card/{id}", cfg.MovieHandler.Card)

			r.Route("/movie/{id}", func(r chi.Router) {
				r.Get("/", cfg.MovieHandler.Movie)
				r.Post("/review", cfg.MovieHandler.Review)
				r.Patch("/liked", cfg.MovieHandler.Liked)
				r.Post("/addWatchlist", cfg.MovieHandler.AddWatchlist)
				r.Post("/addCurrentlyWatching", cfg.MovieHandler.AddCurrentlyWatching)
			})
		})
	}

	if cfg.APIPrefix == "" {
		api(r)
	} else {
		r.Route(cfg.APIPrefix, api)
	}

	return r
}
