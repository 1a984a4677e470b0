// Package instagram is a thin read-only client for the Instagram Graph API
// media edge. Media objects are passed through opaquely (raw JSON); the only
// fields this package interprets are the pagination cursors.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// mediaFields is the projection requested for every media object. Children
// are expanded so carousel posts render without a second round trip.
const mediaFields = "id,caption,media_type,media_url,permalink,thumbnail_url,children{media_type,media_url},timestamp"

const defaultBaseURL = "https://graph.instagram.com"

// Page is one fetched page of media items plus the cursor for the page after
// it, straight from the upstream paging metadata. Items are not validated or
// transformed.
type Page struct {
	Items      []json.RawMessage
	NextCursor string
}

// Cursors carries the opaque after-cursor in the upstream paging shape.
type Cursors struct {
	After string `json:"after,omitempty"`
}

// Paging is the pagination envelope served back to the front end.
type Paging struct {
	Cursors Cursors `json:"cursors"`
}

// Feed is the response shape the front end consumes: the upstream data array
// plus the cursor needed for the next page. It doubles as the accumulated
// list stored in the proxy cache.
type Feed struct {
	Data   []json.RawMessage `json:"data"`
	Paging Paging            `json:"paging"`
}

// graphResponse mirrors the subset of the Graph API response we read.
type graphResponse struct {
	Data   []json.RawMessage `json:"data"`
	Paging struct {
		Cursors struct {
			After string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next"`
	} `json:"paging"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Client fetches media pages for the account behind an access token.
type Client struct {
	http  *resty.Client
	token string
}

// New returns a Client for token. baseURL overrides the Graph API endpoint
// when non-empty (tests point it at a local server).
func New(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(15 * time.Second),
		token: token,
	}
}

// MediaPage fetches up to limit media objects, starting after the given
// cursor when non-empty.
func (c *Client) MediaPage(ctx context.Context, after string, limit int) (*Page, error) {
	var res graphResponse
	req := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"fields":       mediaFields,
			"limit":        fmt.Sprintf("%d", limit),
			"access_token": c.token,
		}).
		SetResult(&res)
	if after != "" {
		req.SetQueryParam("after", after)
	}

	resp, err := req.Get("/me/media")
	if err != nil {
		return nil, fmt.Errorf("instagram media fetch: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("instagram media fetch: upstream status %d", resp.StatusCode())
	}
	if res.Error != nil {
		return nil, fmt.Errorf("instagram media fetch: %s (code %d)", res.Error.Message, res.Error.Code)
	}

	return &Page{
		Items:      res.Data,
		NextCursor: res.Paging.Cursors.After,
	}, nil
}
