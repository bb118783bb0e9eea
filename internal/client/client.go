// Package client provides an HTTP client for the code-comments REST API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/code-comments/internal/comment"
)

const apiPath = "/code-comments/comments"

var (
	// ErrNotFound is returned by Get when no comment has the id.
	ErrNotFound = errors.New("comment not found")
	// ErrUnauthorized is returned when the server rejects the API key.
	ErrUnauthorized = errors.New("invalid API key")
)

// Client is an HTTP client for the code-comments API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client. baseURL includes any mount path, e.g.
// "https://example.com/review".
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Health is the server's answer to /health.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health reports whether the server and its database are up.
func (c *Client) Health() (*Health, error) {
	var h Health
	if err := c.get("/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Search returns comments matching the filters, oldest first.
func (c *Client) Search(filters url.Values) ([]comment.JSON, error) {
	path := apiPath
	if len(filters) > 0 {
		path += "?" + filters.Encode()
	}

	var comments []comment.JSON
	if err := c.get(path, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// Get returns a single comment.
func (c *Client) Get(id int64) (*comment.JSON, error) {
	comments, err := c.Search(url.Values{"id": {strconv.FormatInt(id, 10)}})
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, ErrNotFound
	}
	return &comments[0], nil
}

// Create adds a comment. An empty author is filled in by the server with
// the API key's user.
func (c *Client) Create(req comment.CreateRequest) (*comment.JSON, error) {
	var created comment.JSON
	if err := c.post(apiPath, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// BundleURL asks the server to bundle comments into a ticket description
// and returns the new-ticket URL it redirects to, resolved against the
// server URL.
func (c *Client) BundleURL(ids []int64) (string, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	q := url.Values{"ids": {strings.Join(parts, ",")}}

	req, err := http.NewRequest("GET", c.baseURL+"/code-comments/bundle?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	noFollow := *c.httpClient
	noFollow.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err := noFollow.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusSeeOther && resp.StatusCode != http.StatusFound {
		return "", statusError(resp.StatusCode)
	}
	loc, err := resp.Location()
	if err != nil {
		return "", fmt.Errorf("reading redirect: %w", err)
	}
	return loc.String(), nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer closeBody(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return statusError(resp.StatusCode)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// statusError describes a failed response. The server answers errors with
// an HTML page, so only the status is reported.
func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w (run 'codecomments login')", ErrUnauthorized)
	case http.StatusForbidden:
		return fmt.Errorf("permission denied")
	case http.StatusNotFound:
		return ErrNotFound
	}
	return fmt.Errorf("server error: %d %s", code, http.StatusText(code))
}

func closeBody(resp *http.Response) {
	if cerr := resp.Body.Close(); cerr != nil {
		slog.Warn("closing response body", "error", cerr)
	}
}
