package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"movietrack/internal/httputil"
	"movietrack/internal/model"
)

// The handlers depend on these narrow views of the services so tests can
// substitute function-field mocks.

type AccountService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.User, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type ListManager interface {
	SetWatchlist(ctx context.Context, userID, movieID string, changeTo bool) (bool, error)
	SetCurrentlyWatching(ctx context.Context, userID, movieID string, changeTo bool) (bool, error)
	UpsertReview(ctx context.Context, userID, movieID string, in model.ReviewInput) (*model.WatchedEntry, error)
	SetLiked(ctx context.Context, userID, movieID string, liked bool) (bool, error)
	GetProfile(ctx context.Context, userID string) (*model.User, error)
}

type MovieFinder interface {
	Search(ctx context.Context, title string) ([]model.MovieSummary, error)
	Detail(ctx context.Context, userID, movieID string) (*model.MovieResponse, error)
	Card(ctx context.Context, movieID string) (*model.MovieSummary, error)
}

type AvatarUploader interface {
	UploadAvatar(ctx context.Context, userID string, file io.Reader, header *multipart.FileHeader) (*model.UploadResult, error)
}

const maxJSONBodyBytes = 1 << 20

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeServiceError maps a service error to a status and message. Only the
// upstream "no results" text is passed through; anything unexpected is
// logged and reported generically.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, fallback string) {
	var noResults *model.NoResultsError
	switch {
	case errors.As(err, &noResults):
		httputil.WriteNotFound(w, noResults.Message)
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	case errors.Is(err, model.ErrMovieNotFound):
		httputil.WriteNotFound(w, "Movie not found")
	case errors.Is(err, model.ErrEmailExists):
		httputil.WriteConflict(w, "Email already registered")
	case errors.Is(err, model.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, "Invalid credentials")
	case errors.Is(err, model.ErrMissingField):
		httputil.WriteBadRequest(w, "Missing required fields")
	case errors.Is(err, model.ErrInvalidRating):
		httputil.WriteBadRequest(w, "Rating must be between 1 and 10")
	case errors.Is(err, model.ErrInvalidMovieID):
		httputil.WriteBadRequest(w, "Invalid movie id")
	case errors.Is(err, model.ErrEmptySearch):
		httputil.WriteBadRequest(w, "Search title is required")
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequest(w, "Avatar exceeds 5MB limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequest(w, "Unsupported image type. Allowed: jpeg, png, gif, webp")
	case errors.Is(err, model.ErrUpstreamFailure):
		log.Warn("metadata upstream", zap.Error(err))
		httputil.WriteBadGateway(w, "Movie service unavailable")
	default:
		log.Error(fallback, zap.Error(err))
		httputil.WriteInternalError(w, fallback)
	}
}
