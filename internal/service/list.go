package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"movietrack/internal/model"
	"movietrack/internal/queue"
	"movietrack/internal/repository"
)

// ListService owns the per-user watchlist, currently-watching list and
// watched entries. Every mutation is a read-modify-write of the whole user
// record with no version check; concurrent writers race and the last
// UpdateLists wins.
type ListService struct {
	repo      repository.UserRepository
	publisher queue.Publisher // nil disables list events
	log       *zap.Logger
}

func NewListService(repo repository.UserRepository, publisher queue.Publisher, log *zap.Logger) *ListService {
	return &ListService{
		repo:      repo,
		publisher: publisher,
		log:       log.Named("lists"),
	}
}

// SetWatchlist makes movieID's watchlist membership equal changeTo and
// returns the resulting membership.
func (s *ListService) SetWatchlist(ctx context.Context, userID, movieID string, changeTo bool) (bool, error) {
	return s.setMembership(ctx, userID, movieID, changeTo, queue.EventMovieListed,
		func(u *model.User) *[]string { return &u.WatchList })
}

// SetCurrentlyWatching is SetWatchlist for the currently-watching list.
func (s *ListService) SetCurrentlyWatching(ctx context.Context, userID, movieID string, changeTo bool) (bool, error) {
	return s.setMembership(ctx, userID, movieID, changeTo, queue.EventCurrentlyWatching,
		func(u *model.User) *[]string { return &u.CurrentlyWatching })
}

func (s *ListService) setMembership(ctx context.Context, userID, movieID string, want bool, eventType string, field func(*model.User) *[]string) (bool, error) {
	movieID, err := cleanMovieID(movieID)
	if err != nil {
		return false, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}

	list := field(user)
	updated, changed := model.SetMembership(*list, movieID, want)
	if !changed {
		return want, nil
	}
	*list = updated

	if err := s.repo.UpdateLists(ctx, user); err != nil {
		return false, fmt.Errorf("failed to update lists: %w", err)
	}

	if want {
		s.publish(ctx, eventType, userID, movieID)
	}
	return want, nil
}

// UpsertReview applies the present fields of in to the user's entry for
// movieID, creating it with status Watched if needed.
func (s *ListService) UpsertReview(ctx context.Context, userID, movieID string, in model.ReviewInput) (*model.WatchedEntry, error) {
	movieID, err := cleanMovieID(movieID)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var entry model.WatchedEntry
	user.WatchedMovies, entry = model.ApplyReview(user.WatchedMovies, movieID, in)

	if err := s.repo.UpdateLists(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update lists: %w", err)
	}

	s.publish(ctx, queue.EventReviewUpserted, userID, movieID)
	return &entry, nil
}

// SetLiked find-or-creates the entry for movieID and sets only liked.
func (s *ListService) SetLiked(ctx context.Context, userID, movieID string, liked bool) (bool, error) {
	entry, err := s.UpsertReview(ctx, userID, movieID, model.ReviewInput{Liked: &liked})
	if err != nil {
		return false, err
	}
	return entry.Liked, nil
}

// GetProfile returns the user with the password hash cleared.
func (s *ListService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// GetMovieContext reports where movieID sits in each of the user's lists.
func (s *ListService) GetMovieContext(ctx context.Context, userID, movieID string) (*model.MovieContext, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return MovieContextFor(user, movieID), nil
}

// MovieContextFor derives the movie context from an already loaded user.
func MovieContextFor(user *model.User, movieID string) *model.MovieContext {
	mc := &model.MovieContext{
		InWatchlist:         model.Contains(user.WatchList, movieID),
		IsCurrentlyWatching: model.Contains(user.CurrentlyWatching, movieID),
	}
	if idx := model.FindWatched(user.WatchedMovies, movieID); idx != -1 {
		e := user.WatchedMovies[idx]
		mc.Watched = true
		mc.Review = e.Review
		mc.Rating = e.Rating
		mc.Liked = e.Liked
	}
	return mc
}

// publish is best effort; the list write has already succeeded.
func (s *ListService) publish(ctx context.Context, eventType, userID, movieID string) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, queue.StreamLists, queue.NewListEvent(eventType, userID, movieID)); err != nil {
		s.log.Warn("publish list event",
			zap.String("type", eventType),
			zap.String("user_id", userID),
			zap.String("movie_id", movieID),
			zap.Error(err),
		)
	}
}

func cleanMovieID(movieID string) (string, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return "", model.ErrInvalidMovieID
	}
	return movieID, nil
}
