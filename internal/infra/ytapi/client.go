// Package ytapi is a thin client for the pieces of the YouTube Data API
// v3 that channel-handle resolution needs: search.list and channels.list.
package ytapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const baseURL = "https://www.googleapis.com/youtube/v3"

// Channel is the subset of a channels.list/search.list result that handle
// resolution needs.
type Channel struct {
	ID        string
	Title     string
	CustomURL string
}

// Client calls the YouTube Data API with a plain *http.Client, the same
// way any other low-volume JSON API integration in this codebase does.
type Client struct {
	httpClient *http.Client
	apiKey     string
}

func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
	}
}

// SearchChannels runs a search.list(type=channel) query and resolves each
// hit's customUrl/title via a follow-up channels.list batch call, since
// search.list snippets don't carry customUrl themselves.
func (c *Client) SearchChannels(ctx context.Context, query string) ([]Channel, error) {
	var resp searchListResponse
	if err := c.get(ctx, "/search", url.Values{
		"part": {"snippet"},
		"type": {"channel"},
		"q":    {query},
	}, &resp); err != nil {
		return nil, fmt.Errorf("search channels %q: %w", query, err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.ChannelID != "" {
			ids = append(ids, item.ID.ChannelID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return c.ChannelsByID(ctx, ids)
}

// ChannelsByID fetches snippet details (title, customUrl) for up to 50
// channel ids in one call.
func (c *Client) ChannelsByID(ctx context.Context, ids []string) ([]Channel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	joined := ids[0]
	for _, id := range ids[1:] {
		joined += "," + id
	}

	var resp channelsListResponse
	if err := c.get(ctx, "/channels", url.Values{
		"part": {"snippet"},
		"id":   {joined},
	}, &resp); err != nil {
		return nil, fmt.Errorf("channels by id: %w", err)
	}
	return resp.channels(), nil
}

// ChannelByUsername resolves a legacy YouTube username (forUsername), the
// last-resort fallback when search yields nothing.
func (c *Client) ChannelByUsername(ctx context.Context, username string) (*Channel, error) {
	var resp channelsListResponse
	if err := c.get(ctx, "/channels", url.Values{
		"part":        {"snippet"},
		"forUsername": {username},
	}, &resp); err != nil {
		return nil, fmt.Errorf("channel by username %q: %w", username, err)
	}
	channels := resp.channels()
	if len(channels) == 0 {
		return nil, nil
	}
	return &channels[0], nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("key", c.apiKey)
	reqURL := baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "YanaBot/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("youtube api %s: HTTP %d: %s", path, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type searchListResponse struct {
	Items []struct {
		ID struct {
			ChannelID string `json:"channelId"`
		} `json:"id"`
	} `json:"items"`
}

type channelsListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title     string `json:"title"`
			CustomURL string `json:"customUrl"`
		} `json:"snippet"`
	} `json:"items"`
}

func (r channelsListResponse) channels() []Channel {
	out := make([]Channel, 0, len(r.Items))
	for _, item := range r.Items {
		out = append(out, Channel{ID: item.ID, Title: item.Snippet.Title, CustomURL: item.Snippet.CustomURL})
	}
	return out
}
