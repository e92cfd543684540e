// Package imagesearch is the SerpApi Google Images client used by the
// primary image curation path.
package imagesearch

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

const defaultBaseURL = "https://serpapi.com/search.json"

// RawResult is one image hit as returned by the provider.
type RawResult struct {
	Title          string `json:"title"`
	Original       string `json:"original"`
	OriginalWidth  int    `json:"original_width"`
	OriginalHeight int    `json:"original_height"`
	Thumbnail      string `json:"thumbnail"`
	Source         string `json:"source"`
	Link           string `json:"link"`
}

type searchResponse struct {
	ImagesResults []RawResult `json:"images_results"`
	Error         string      `json:"error"`
}

// Client queries the SerpApi Google Images engine.
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

// Query runs one image search. Callers treat any error as "no candidates";
// nothing here retries.
func (c *Client) Query(ctx context.Context, query string, count int) ([]RawResult, error) {
	if !c.Configured() {
		return nil, errors.New("serpapi: API key is missing")
	}

	params := url.Values{}
	params.Set("engine", "google_images")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(count))
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("serpapi: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("serpapi: decoding response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("serpapi: %s", parsed.Error)
	}
	return parsed.ImagesResults, nil
}
