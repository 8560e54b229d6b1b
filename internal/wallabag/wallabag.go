// Package wallabag is a minimal client for the Wallabag REST API: password-grant
// token exchange, entry listing, single-entry retrieval and entry creation.
package wallabag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrAlreadyExists is returned by AddEntry when the remote service answers 409:
// the entry is already saved. Callers must treat this as a no-op success, not a
// failure.
var ErrAlreadyExists = errors.New("entry already exists")

// Tag is a label attached to a saved entry.
type Tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// Entry is a single saved article. Listing responses carry the summary form
// (no Content); GetEntry returns the full form.
type Entry struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	Tags      []Tag  `json:"tags"`
}

// createdAtLayouts covers the timestamp forms Wallabag emits: RFC3339 and the
// same with a colonless zone offset.
var createdAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
}

// CreatedTime parses the entry's creation timestamp.
func (e Entry) CreatedTime() (time.Time, error) {
	s := strings.TrimSpace(e.CreatedAt)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized created_at %q", e.CreatedAt)
}

// Config holds the connection settings for one Wallabag instance.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Client talks to a single Wallabag instance. The bearer token lives only in
// memory and is obtained lazily on the first authenticated call; it is never
// refreshed on 401 (re-auth happens only when no token is held).
type Client struct {
	config Config
	client *http.Client
	token  string
}

// NewClient creates a Client. A nil httpClient falls back to a client with a
// 30 second timeout.
func NewClient(config Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		config: config,
		client: httpClient,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Authenticate exchanges the configured credentials for a bearer token via the
// OAuth2 password grant and stores it on the client.
func (c *Client) Authenticate(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"username":      {c.config.Username},
		"password":      {c.config.Password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/oauth/v2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("token request: got response %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("token request: %w", err)
	}
	if token.AccessToken == "" {
		return errors.New("token request: empty access_token")
	}

	c.token = token.AccessToken
	return nil
}

// ensureToken authenticates if no token is held yet.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.token != "" {
		return nil
	}
	return c.Authenticate(ctx)
}

type listResponse struct {
	Embedded struct {
		Items []Entry `json:"items"`
	} `json:"_embedded"`
}

// ListEntries retrieves up to one page (100 items) of entries, newest first by
// creation time. A non-nil since is passed to the server as an epoch-seconds
// filter. Results beyond the first page are not fetched.
func (c *Client) ListEntries(ctx context.Context, since *float64) ([]Entry, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"perPage": {"100"},
		"order":   {"desc"},
		"sort":    {"created"},
	}
	if since != nil {
		params.Set("since", strconv.FormatInt(int64(*since), 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/entries?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("list entries: got response %d", resp.StatusCode)
	}

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	return list.Embedded.Items, nil
}

// GetEntry retrieves the full form of a single entry, content included.
func (c *Client) GetEntry(ctx context.Context, id int) (*Entry, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/entries/%d", c.config.BaseURL, id), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get entry %d: got response %d", id, resp.StatusCode)
	}

	var entry Entry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}

	return &entry, nil
}

type addEntryRequest struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Tags  string `json:"tags,omitempty"`
}

// AddEntry saves a URL to the account. Title and tags (comma-separated) are
// optional. A 409 from the server means the entry is already saved and is
// reported as ErrAlreadyExists so callers can count it as a success.
func (c *Client) AddEntry(ctx context.Context, entryURL, title, tags string) (*Entry, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(addEntryRequest{URL: entryURL, Title: title, Tags: tags})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/entries", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Authorization", "Bearer "+c.token)
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("add entry %s: %w", entryURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil, ErrAlreadyExists
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("add entry %s: got response %d: %s", entryURL, resp.StatusCode, bytes.TrimSpace(detail))
	}

	var entry Entry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("add entry %s: %w", entryURL, err)
	}

	return &entry, nil
}
