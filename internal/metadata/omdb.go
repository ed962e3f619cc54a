// Package metadata talks to the OMDb movie database.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"movietrack/internal/model"
)

const DefaultBaseURL = "https://www.omdbapi.com/"

// Client looks up movies by title or IMDb id.
type Client interface {
	Search(ctx context.Context, title string) ([]model.MovieSummary, error)
	Detail(ctx context.Context, movieID string) (json.RawMessage, error)
	Card(ctx context.Context, movieID string) (*model.MovieSummary, error)
}

type OMDbClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOMDbClient(apiKey, baseURL string) *OMDbClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OMDbClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// envelope holds the status fields present on every OMDb response.
type envelope struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

type searchResponse struct {
	envelope
	Search []model.MovieSummary `json:"Search"`
}

func (c *OMDbClient) Search(ctx context.Context, title string) ([]model.MovieSummary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, model.ErrEmptySearch
	}

	body, err := c.get(ctx, url.Values{"s": {title}})
	if err != nil {
		return nil, err
	}

	var res searchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: decode search: %v", model.ErrUpstreamFailure, err)
	}
	if res.Response != "True" {
		return nil, &model.NoResultsError{Message: res.Error}
	}
	return res.Search, nil
}

func (c *OMDbClient) Detail(ctx context.Context, movieID string) (json.RawMessage, error) {
	if movieID == "" {
		return nil, model.ErrInvalidMovieID
	}

	body, err := c.get(ctx, url.Values{"i": {movieID}, "plot": {"full"}})
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decode detail: %v", model.ErrUpstreamFailure, err)
	}
	if env.Response != "True" {
		return nil, &model.NoResultsError{Message: env.Error}
	}
	return json.RawMessage(body), nil
}

func (c *OMDbClient) Card(ctx context.Context, movieID string) (*model.MovieSummary, error) {
	detail, err := c.Detail(ctx, movieID)
	if err != nil {
		return nil, err
	}
	return cardFromDetail(detail)
}

func cardFromDetail(detail json.RawMessage) (*model.MovieSummary, error) {
	var card model.MovieSummary
	if err := json.Unmarshal(detail, &card); err != nil {
		return nil, fmt.Errorf("%w: decode card: %v", model.ErrUpstreamFailure, err)
	}
	return &card, nil
}

// get performs the request and returns the raw body. Transport errors and
// non-200 statuses become ErrUpstreamFailure.
func (c *OMDbClient) get(ctx context.Context, params url.Values) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base url: %v", model.ErrUpstreamFailure, err)
	}
	params.Set("apikey", c.apiKey)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamFailure, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: OMDb returned %d", model.ErrUpstreamFailure, resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: read body: %v", model.ErrUpstreamFailure, err)
	}
	return raw, nil
}
