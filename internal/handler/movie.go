package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"movietrack/internal/httputil"
	"movietrack/internal/model"
	"movietrack/internal/transport/http/middleware"
)

// MovieHandler serves movie lookups and the per-movie list actions.
type MovieHandler struct {
	movies MovieFinder
	lists  ListManager
	log    *zap.Logger
}

func NewMovieHandler(movies MovieFinder, lists ListManager, log *zap.Logger) *MovieHandler {
	return &MovieHandler{
		movies: movies,
		lists:  lists,
		log:    log.Named("movies"),
	}
}

// Search proxies an OMDb title search.
// GET /search?title=
func (h *MovieHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.movies.Search(r.Context(), r.URL.Query().Get("title"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to search movies")
		return
	}
	httputil.WriteData(w, results)
}

// Movie returns the full OMDb record plus the caller's list state.
// GET /movie/{id}
func (h *MovieHandler) Movie(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, middleware.MsgTokenRequired)
		return
	}

	resp, err := h.movies.Detail(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load movie")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Card returns the compact summary used by list pages.
// GET /card/{id}
func (h *MovieHandler) Card(w http.ResponseWriter, r *http.Request) {
	card, err := h.movies.Card(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load movie")
		return
	}
	httputil.WriteData(w, card)
}

// Review upserts the caller's watched entry for the movie.
// POST /movie/{id}/review
func (h *MovieHandler) Review(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, middleware.MsgTokenRequired)
		return
	}

	var in model.ReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	entry, err := h.lists.UpsertReview(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to save review")
		return
	}
	httputil.WriteData(w, entry)
}

// Liked sets only the liked flag on the caller's watched entry.
// PATCH /movie/{id}/liked
func (h *MovieHandler) Liked(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, middleware.MsgTokenRequired)
		return
	}

	var req model.LikedRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Liked == nil {
		httputil.WriteBadRequest(w, "liked must be a boolean")
		return
	}

	liked, err := h.lists.SetLiked(r.Context(), userID, chi.URLParam(r, "id"), *req.Liked)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update liked")
		return
	}
	httputil.WriteData(w, map[string]bool{"liked": liked})
}

// AddWatchlist sets watchlist membership to changeTo.
// POST /movie/{id}/addWatchlist
func (h *MovieHandler) AddWatchlist(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, "inWatchlist", h.lists.SetWatchlist)
}

// AddCurrentlyWatching sets currently-watching membership to changeTo.
// POST /movie/{id}/addCurrentlyWatching
func (h *MovieHandler) AddCurrentlyWatching(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, "isCurrentlyWatching", h.lists.SetCurrentlyWatching)
}

type membershipFunc func(ctx context.Context, userID, movieID string, changeTo bool) (bool, error)

func (h *MovieHandler) membership(w http.ResponseWriter, r *http.Request, field string, set membershipFunc) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, middleware.MsgTokenRequired)
		return
	}

	var req model.MembershipRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ChangeTo == nil {
		httputil.WriteBadRequest(w, "changeTo must be a boolean")
		return
	}

	member, err := set(r.Context(), userID, chi.URLParam(r, "id"), *req.ChangeTo)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update list")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		field:     member,
	})
}
