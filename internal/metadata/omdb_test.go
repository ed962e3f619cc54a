package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movietrack/internal/model"
)

// newOMDbServer fakes the OMDb API. It answers s= searches and i= lookups
// for the ids it knows and mimics OMDb's Response:"False" bodies otherwise.
func newOMDbServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apikey") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"Response":"False","Error":"Invalid API key!"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case q.Get("s") == "shawshank":
			_, _ = w.Write([]byte(`{"Search":[{"Title":"The Shawshank Redemption","Year":"1994","imdbID":"tt0111161","Type":"movie","Poster":"https://img/x.jpg"}],"totalResults":"1","Response":"True"}`))
		case q.Get("s") != "":
			_, _ = w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
		case q.Get("i") == "tt0111161":
			if q.Get("plot") != "full" {
				t.Errorf("plot = %q, want full", q.Get("plot"))
			}
			_, _ = w.Write([]byte(`{"Title":"The Shawshank Redemption","Year":"1994","imdbID":"tt0111161","Type":"movie","Poster":"https://img/x.jpg","Director":"Frank Darabont","Response":"True"}`))
		default:
			_, _ = w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
		}
	}))
}

func TestOMDbClient_Search(t *testing.T) {
	srv := newOMDbServer(t)
	defer srv.Close()
	c := NewOMDbClient("test-key", srv.URL)

	results, err := c.Search(context.Background(), " shawshank ")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tt0111161", results[0].ImdbID)
}

func TestOMDbClient_Search_NoResultsPassesMessage(t *testing.T) {
	srv := newOMDbServer(t)
	defer srv.Close()
	c := NewOMDbClient("test-key", srv.URL)

	_, err := c.Search(context.Background(), "zzzz")

	var noResults *model.NoResultsError
	require.True(t, errors.As(err, &noResults), "error = %v", err)
	assert.Equal(t, "Movie not found!", noResults.Message)
	assert.ErrorIs(t, err, model.ErrMovieNotFound)
	assert.NotErrorIs(t, err, model.ErrUpstreamFailure)
}

func TestOMDbClient_Search_EmptyTitle(t *testing.T) {
	c := NewOMDbClient("test-key", "http://unused.invalid")
	_, err := c.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, model.ErrEmptySearch)
}

func TestOMDbClient_BadKeyIsUpstreamFailure(t *testing.T) {
	srv := newOMDbServer(t)
	defer srv.Close()
	c := NewOMDbClient("wrong", srv.URL)

	_, err := c.Search(context.Background(), "shawshank")
	assert.ErrorIs(t, err, model.ErrUpstreamFailure)

	var noResults *model.NoResultsError
	assert.False(t, errors.As(err, &noResults), "upstream failures must not carry a pass-through message")
}

func TestOMDbClient_Unreachable(t *testing.T) {
	srv := newOMDbServer(t)
	url := srv.URL
	srv.Close()

	_, err := NewOMDbClient("test-key", url).Detail(context.Background(), "tt0111161")
	assert.ErrorIs(t, err, model.ErrUpstreamFailure)
}

func TestOMDbClient_DetailPassThrough(t *testing.T) {
	srv := newOMDbServer(t)
	defer srv.Close()
	c := NewOMDbClient("test-key", srv.URL)

	detail, err := c.Detail(context.Background(), "tt0111161")
	require.NoError(t, err)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(detail, &fields))
	assert.Equal(t, "Frank Darabont", fields["Director"])
}

func TestOMDbClient_DetailUnknownID(t *testing.T) {
	srv := newOMDbServer(t)
	defer srv.Close()

	_, err := NewOMDbClient("test-key", srv.URL).Detail(context.Background(), "tt0000000")
	assert.ErrorIs(t, err, model.ErrMovieNotFound)
}

func TestOMDbClient_Card(t *testing.T) {
	srv := newOMDbServer(t)
	defer srv.Close()

	card, err := NewOMDbClient("test-key", srv.URL).Card(context.Background(), "tt0111161")
	require.NoError(t, err)
	assert.Equal(t, model.MovieSummary{
		Title: "The Shawshank Redemption", Year: "1994", ImdbID: "tt0111161", Type: "movie", Poster: "https://img/x.jpg",
	}, *card)
}
