package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the list stream
const (
	EventMovieListed       = "movie_listed"
	EventCurrentlyWatching = "currently_watching"
	EventReviewUpserted    = "review_upserted"
)

// Stream names
const (
	StreamLists = "stream:lists"
)

// Consumer group name for list workers
const (
	ConsumerGroupLists = "list_workers"
)

// ListEvent is published after a user's lists change.
type ListEvent struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	MovieID   string `json:"movieId"`
	Timestamp int64  `json:"timestamp"` // Unix seconds
}

// NewListEvent stamps an event of the given type with the current time.
func NewListEvent(eventType, userID, movieID string) ListEvent {
	return ListEvent{
		Type:      eventType,
		UserID:    userID,
		MovieID:   movieID,
		Timestamp: time.Now().Unix(),
	}
}

// ToMap converts the event to a map for Redis XADD.
// The JSON form goes in the "data" field.
func (e ListEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseListEvent parses a ListEvent from Redis stream message values.
func ParseListEvent(values map[string]interface{}) (ListEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ListEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ListEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ListEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
