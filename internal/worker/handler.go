package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"movietrack/internal/queue"
)

// Prefetcher warms the metadata cache for one movie.
type Prefetcher interface {
	Prefetch(ctx context.Context, movieID string) error
}

// Handler processes list events from the queue.
type Handler struct {
	prefetcher Prefetcher
	log        *zap.Logger
}

func NewHandler(prefetcher Prefetcher, log *zap.Logger) *Handler {
	return &Handler{prefetcher: prefetcher, log: log.Named("worker")}
}

// HandleEvent routes an event by type. Every list event names a movie the
// user's list pages will render, so each one prefetches that movie.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ListEvent) error {
	startTime := time.Now()

	switch event.Type {
	case queue.EventMovieListed, queue.EventCurrentlyWatching, queue.EventReviewUpserted:
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if event.MovieID == "" {
		return fmt.Errorf("%s event without movie id", event.Type)
	}

	if err := h.prefetcher.Prefetch(ctx, event.MovieID); err != nil {
		return fmt.Errorf("prefetch %s: %w", event.MovieID, err)
	}

	h.log.Debug("event handled",
		zap.String("type", event.Type),
		zap.String("movie_id", event.MovieID),
		zap.Duration("duration", time.Since(startTime)),
	)
	return nil
}
