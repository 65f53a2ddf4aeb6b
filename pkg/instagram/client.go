// Package instagram implements the Graph API client used for publishing
// posts and for discovering business accounts.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/photogram-hq/photogram-poster/internal/logger"
	"github.com/photogram-hq/photogram-poster/pkg/httpclient"
)

// PublishError describes a failed publishing call: transport error, non-2xx
// status, or a response missing the expected id.
type PublishError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *PublishError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("graph %s: %v", e.Op, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("graph %s: status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("graph %s: status %d", e.Op, e.Status)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Page is one entry from the account directory listing.
type Page struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client calls the Instagram Graph-compatible API.
type Client struct {
	http    httpclient.Client
	baseURL string
	token   string
	log     logger.Logger
}

// NewClient wires a Graph API client. basePath must end with a slash; the
// version segment is appended to it.
func NewClient(http httpclient.Client, basePath, version, accessToken string, log logger.Logger) *Client {
	return &Client{
		http:    http,
		baseURL: basePath + version + "/",
		token:   accessToken,
		log:     logger.Ensure(log),
	}
}

// ListPages fetches the pages reachable under the configured credential.
func (c *Client) ListPages(ctx context.Context) ([]Page, error) {
	query := url.Values{"access_token": {c.token}}
	resp, err := c.http.Get(ctx, c.baseURL+"me/accounts", query, nil)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if !statusOK(resp.StatusCode()) {
		return nil, fmt.Errorf("list pages: status %d: %s", resp.StatusCode(), responseSnippet(resp.Body()))
	}

	var parsed struct {
		Data []Page `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("decode pages listing: %w", err)
	}
	return parsed.Data, nil
}

// BusinessUserID resolves a page to its business user id. Pages without a
// linked business account resolve to the empty string without error.
func (c *Client) BusinessUserID(ctx context.Context, pageID string) (string, error) {
	query := url.Values{
		"access_token": {c.token},
		"fields":       {"instagram_business_account"},
	}
	resp, err := c.http.Get(ctx, c.baseURL+pageID, query, nil)
	if err != nil {
		return "", fmt.Errorf("resolve business account for page %s: %w", pageID, err)
	}
	if !statusOK(resp.StatusCode()) {
		return "", fmt.Errorf("resolve business account for page %s: status %d: %s",
			pageID, resp.StatusCode(), responseSnippet(resp.Body()))
	}

	var parsed struct {
		BusinessAccount *struct {
			ID string `json:"id"`
		} `json:"instagram_business_account"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("decode business account for page %s: %w", pageID, err)
	}
	if parsed.BusinessAccount == nil {
		return "", nil
	}
	return parsed.BusinessAccount.ID, nil
}

// MediaCount returns the number of media entries currently on the account.
func (c *Client) MediaCount(ctx context.Context, userID string) (int, error) {
	query := url.Values{"access_token": {c.token}}
	resp, err := c.http.Get(ctx, c.baseURL+userID+"/media", query, nil)
	if err != nil {
		return 0, fmt.Errorf("fetch media for %s: %w", userID, err)
	}
	if !statusOK(resp.StatusCode()) {
		return 0, fmt.Errorf("fetch media for %s: status %d: %s",
			userID, resp.StatusCode(), responseSnippet(resp.Body()))
	}

	var parsed struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return 0, fmt.Errorf("decode media for %s: %w", userID, err)
	}
	return len(parsed.Data), nil
}

// CreateContainer creates the media container for one post and returns its id.
func (c *Client) CreateContainer(ctx context.Context, userID, imageURL, caption string) (string, error) {
	query := url.Values{
		"access_token": {c.token},
		"image_url":    {imageURL},
		"caption":      {caption},
	}
	resp, err := c.http.Post(ctx, c.baseURL+userID+"/media", query, nil)
	if err != nil {
		return "", &PublishError{Op: "create media container", Err: err}
	}
	if !statusOK(resp.StatusCode()) {
		return "", &PublishError{
			Op:     "create media container",
			Status: resp.StatusCode(),
			Body:   responseSnippet(resp.Body()),
		}
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", &PublishError{Op: "create media container", Err: err}
	}
	if parsed.ID == "" {
		return "", &PublishError{Op: "create media container", Err: fmt.Errorf("response missing id")}
	}

	c.log.InfoObj("media container created", "container", map[string]any{
		"user_id":      userID,
		"container_id": parsed.ID,
	})
	return parsed.ID, nil
}

// Publish publishes a previously created media container to the account.
func (c *Client) Publish(ctx context.Context, userID, containerID string) error {
	query := url.Values{
		"access_token": {c.token},
		"creation_id":  {containerID},
	}
	resp, err := c.http.Post(ctx, c.baseURL+userID+"/media_publish", query, nil)
	if err != nil {
		return &PublishError{Op: "publish media container", Err: err}
	}
	if !statusOK(resp.StatusCode()) {
		return &PublishError{
			Op:     "publish media container",
			Status: resp.StatusCode(),
			Body:   responseSnippet(resp.Body()),
		}
	}

	c.log.InfoObj("media container published", "publish", map[string]any{
		"user_id":      userID,
		"container_id": containerID,
	})
	return nil
}

func statusOK(code int) bool { return code >= 200 && code <= 299 }

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
