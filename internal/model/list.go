package model

import "errors"

// WatchStatus tags a watched entry. It is written on creation and not read
// back by any list logic; membership is derived from the three collections.
type WatchStatus string

const (
	StatusWatched           WatchStatus = "Watched"
	StatusCurrentlyWatching WatchStatus = "CurrentlyWatching"
	StatusWatchList         WatchStatus = "WatchList"
)

const (
	MinRating = 1
	MaxRating = 10
)

// WatchedEntry is a user's review state for one movie, keyed by MovieID.
type WatchedEntry struct {
	MovieID string      `json:"movieID" bson:"movieID"`
	Rating  *int        `json:"rating" bson:"rating,omitempty"`
	Review  *string     `json:"review" bson:"review,omitempty"`
	Liked   bool        `json:"liked" bson:"liked"`
	Status  WatchStatus `json:"movieStatus,omitempty" bson:"movieStatus,omitempty"`
}

// ReviewInput carries a partial update; nil fields keep their prior value.
type ReviewInput struct {
	Review *string `json:"review"`
	Rating *int    `json:"rating"`
	Liked  *bool   `json:"liked"`
}

// Validate checks the optional rating range.
func (in ReviewInput) Validate() error {
	if in.Rating != nil && (*in.Rating < MinRating || *in.Rating > MaxRating) {
		return ErrInvalidRating
	}
	return nil
}

// MembershipRequest is the body of the addWatchlist / addCurrentlyWatching endpoints.
type MembershipRequest struct {
	ChangeTo *bool `json:"changeTo"`
}

// LikedRequest is the body of PATCH /movie/{id}/liked.
type LikedRequest struct {
	Liked *bool `json:"liked"`
}

// MovieContext is the per-user view of one movie consumed by the detail page.
type MovieContext struct {
	InWatchlist         bool    `json:"inWatchlist"`
	IsCurrentlyWatching bool    `json:"isCurrentlyWatching"`
	Watched             bool    `json:"watched"`
	Review              *string `json:"review"`
	Rating              *int    `json:"rating"`
	Liked               bool    `json:"liked"`
}

// SetMembership adds or removes id so that its presence in list equals want.
// It returns the resulting list and whether anything changed.
func SetMembership(list []string, id string, want bool) ([]string, bool) {
	idx := indexOf(list, id)
	switch {
	case want && idx == -1:
		return append(list, id), true
	case !want && idx != -1:
		out := make([]string, 0, len(list)-1)
		out = append(out, list[:idx]...)
		return append(out, list[idx+1:]...), true
	default:
		return list, false
	}
}

// Contains reports whether id is in list.
func Contains(list []string, id string) bool {
	return indexOf(list, id) != -1
}

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

// FindWatched returns the index of the entry for movieID, or -1.
func FindWatched(entries []WatchedEntry, movieID string) int {
	for i := range entries {
		if entries[i].MovieID == movieID {
			return i
		}
	}
	return -1
}

// ApplyReview finds or creates the entry for movieID and applies the fields
// present in in. New entries default to liked=false and status Watched.
func ApplyReview(entries []WatchedEntry, movieID string, in ReviewInput) ([]WatchedEntry, WatchedEntry) {
	idx := FindWatched(entries, movieID)
	if idx == -1 {
		entries = append(entries, WatchedEntry{MovieID: movieID, Status: StatusWatched})
		idx = len(entries) - 1
	}

	e := &entries[idx]
	if in.Review != nil {
		review := *in.Review
		e.Review = &review
	}
	if in.Rating != nil {
		rating := *in.Rating
		e.Rating = &rating
	}
	if in.Liked != nil {
		e.Liked = *in.Liked
	}
	return entries, *e
}

var (
	// ErrInvalidRating is returned when a rating falls outside MinRating..MaxRating
	ErrInvalidRating = errors.New("rating must be between 1 and 10")

	// ErrInvalidMovieID is returned for an empty or malformed movie identifier
	ErrInvalidMovieID = errors.New("invalid movie id")
)
