// Package photos is the Pexels client backing the remote tier of the
// secondary image fallback chain.
package photos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"docforge/internal/httpx"
)

const defaultBaseURL = "https://api.pexels.com/v1/search"

// RawPhoto is one photo as returned by the provider.
type RawPhoto struct {
	ID              int64  `json:"id"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	URL             string `json:"url"`
	Alt             string `json:"alt"`
	Photographer    string `json:"photographer"`
	PhotographerURL string `json:"photographer_url"`
	Src             struct {
		Original string `json:"original"`
		Large    string `json:"large"`
		Medium   string `json:"medium"`
		Tiny     string `json:"tiny"`
	} `json:"src"`
}

type searchResponse struct {
	Photos []RawPhoto `json:"photos"`
}

// Client queries the Pexels photo search API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient builds a client on the shared external HTTP client.
func NewClient(apiKey string) *Client {
	return &Client{apiKey: apiKey, baseURL: defaultBaseURL, client: httpx.ExternalHTTPClient()}
}

// NewClientWith overrides the endpoint and HTTP client, for tests.
func NewClientWith(apiKey, baseURL string, client *http.Client) *Client {
	return &Client{apiKey: apiKey, baseURL: baseURL, client: client}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// Search runs one photo query. Orientation may be empty, "landscape" or
// "portrait".
func (c *Client) Search(ctx context.Context, query string, count int, orientation string) ([]RawPhoto, error) {
	if !c.Configured() {
		return nil, errors.New("pexels: API key is missing")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(count))
	if orientation != "" {
		params.Set("orientation", orientation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pexels: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("pexels: decoding response: %w", err)
	}
	return parsed.Photos, nil
}
