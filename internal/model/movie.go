package model

import (
	"encoding/json"
	"errors"
)

// MovieSummary is one OMDb search hit, also used as the compact movie card.
type MovieSummary struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// MovieDetail is the OMDb detail object passed through to clients unmodified.
type MovieDetail = json.RawMessage

// MovieResponse is returned by GET /movie/{id}.
type MovieResponse struct {
	Success             bool          `json:"success"`
	Movie               MovieDetail   `json:"movie"`
	User                *MovieContext `json:"user"`
	InWatchlist         bool          `json:"inWatchlist"`
	IsCurrentlyWatching bool          `json:"isCurrentlyWatching"`
}

// NoResultsError carries the upstream message for an empty lookup. It is the
// only upstream text passed through to clients.
type NoResultsError struct {
	Message string
}

func (e *NoResultsError) Error() string {
	return "no results: " + e.Message
}

func (e *NoResultsError) Unwrap() error {
	return ErrMovieNotFound
}

var (
	// ErrMovieNotFound is returned when the metadata API has no match
	ErrMovieNotFound = errors.New("movie not found")

	// ErrUpstreamFailure is returned when the metadata API errors or is unreachable
	ErrUpstreamFailure = errors.New("metadata upstream failure")

	// ErrEmptySearch is returned for a blank search term
	ErrEmptySearch = errors.New("search title is required")
)
