// Package api provides the HTTP client for the TuneQueue catalog API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"

	"github.com/glebovdev/tunequeue/internal/httpclient"
	"github.com/glebovdev/tunequeue/internal/playback"
	"github.com/glebovdev/tunequeue/internal/track"
)

const (
	DefaultBaseURL = "https://api.tunequeue.app/v1"
	requestTimeout = 30 * time.Second
	deviceHeader   = "X-Device-ID"
)

var ErrUnauthorized = errors.New("api rejected credentials")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Status)
}

// Album is a catalog album with its tracks.
type Album struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Artist  string        `json:"artist"`
	Artwork string        `json:"artwork,omitempty"`
	Songs   []track.Track `json:"songs"`
}

type songsResponse struct {
	Songs []track.Track `json:"songs"`
}

// Client is the HTTP client for the catalog and profile endpoints.
type Client struct {
	client *resty.Client
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	Token    string
	DeviceID string
	Timeout  time.Duration
}

// NewClient creates a catalog client.
func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}

	client := httpclient.New(timeout).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")

	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}
	if opts.DeviceID != "" {
		client.SetHeader(deviceHeader, opts.DeviceID)
	}

	return &Client{client: client}
}

// GetSongs fetches the full song library.
func (c *Client) GetSongs(ctx context.Context) ([]track.Track, error) {
	return c.getSongs(ctx, "/songs", nil)
}

// SearchSongs fetches songs matching the query.
func (c *Client) SearchSongs(ctx context.Context, query string) ([]track.Track, error) {
	return c.getSongs(ctx, "/songs/search", map[string]string{"q": query})
}

// GetLikedSongs fetches the songs the user liked.
func (c *Client) GetLikedSongs(ctx context.Context) ([]track.Track, error) {
	return c.getSongs(ctx, "/users/me/liked", nil)
}

// GetAlbum fetches an album and its tracks.
func (c *Client) GetAlbum(ctx context.Context, id string) (*Album, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get("/albums/{id}")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch album %s", id)
	}

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var album Album
	if err := json.Unmarshal(resp.Body(), &album); err != nil {
		return nil, errors.Wrap(err, "failed to parse album response")
	}

	return &album, nil
}

// UpdateSettings pushes playback preferences to the user profile.
func (c *Client) UpdateSettings(ctx context.Context, s playback.Settings) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(s).
		Put("/users/me/settings")
	if err != nil {
		return errors.Wrap(err, "failed to update settings")
	}

	return checkResponse(resp)
}

func (c *Client) getSongs(ctx context.Context, path string, query map[string]string) ([]track.Track, error) {
	req := c.client.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", path)
	}

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var response songsResponse
	if err := json.Unmarshal(resp.Body(), &response); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s response", path)
	}

	return response.Songs, nil
}

func checkResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return errors.WithStack(ErrUnauthorized)
	}
	return &StatusError{StatusCode: resp.StatusCode(), Status: resp.Status()}
}
