// Package square is a read-mostly client for the Square Catalog, Inventory,
// and payment-link APIs. Responses are passed through as raw JSON; the only
// request this package actually constructs is the checkout payment link,
// which needs a server-generated idempotency key.
package square

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	defaultBaseURL = "https://connect.squareupsandbox.com"
	// apiVersion pins the Square-Version header; bump deliberately.
	apiVersion = "2023-10-18"
)

// LineItem is the subset of a Square order line item the checkout endpoint
// needs to read (the rest is forwarded untouched).
type LineItem struct {
	CatalogObjectID string `json:"catalog_object_id"`
	Quantity        string `json:"quantity"`
}

// Client calls the Square API with a bearer token. The zero value is not
// usable; use New.
type Client struct {
	http       *resty.Client
	locationID string
}

// New returns a Client for token and locationID. baseURL falls back to the
// sandbox environment when empty.
func New(token, locationID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(15 * time.Second).
			SetAuthToken(token).
			SetHeader("Square-Version", apiVersion),
		locationID: locationID,
	}
}

// ListCatalog returns the catalog list response for the given object types
// (e.g. "ITEM" or "IMAGE") verbatim.
func (c *Client) ListCatalog(ctx context.Context, types string) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("types", types).
		Get("/v2/catalog/list")
	if err != nil {
		return nil, fmt.Errorf("square catalog list: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("square catalog list: upstream status %d", resp.StatusCode())
	}
	return json.RawMessage(resp.Body()), nil
}

// RetrieveStock returns inventory counts for the given catalog object ids,
// verbatim. Uncached by design: stock must reflect the current state.
func (c *Client) RetrieveStock(ctx context.Context, catalogObjectIDs []string) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"catalog_object_ids": catalogObjectIDs,
			"location_ids":       []string{c.locationID},
		}).
		Post("/v2/inventory/counts/batch-retrieve")
	if err != nil {
		return nil, fmt.Errorf("square inventory: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("square inventory: upstream status %d", resp.StatusCode())
	}
	return json.RawMessage(resp.Body()), nil
}

// CreatePaymentLink builds a checkout payment link for the given order line
// items (a JSON array as received from the front end). Experimental: the
// consuming storefront flow is not finished.
func (c *Client) CreatePaymentLink(ctx context.Context, lineItemsJSON []byte) (json.RawMessage, error) {
	var items []LineItem
	if err := json.Unmarshal(lineItemsJSON, &items); err != nil {
		return nil, fmt.Errorf("square checkout: parse line items: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("square checkout: no line items")
	}

	// Keep the raw items for the forwarded body so fields we do not model
	// survive the round trip.
	var rawItems []json.RawMessage
	if err := json.Unmarshal(lineItemsJSON, &rawItems); err != nil {
		return nil, fmt.Errorf("square checkout: parse line items: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"idempotency_key": idempotencyKey(items[0].CatalogObjectID),
			"order": map[string]any{
				"location_id": c.locationID,
				"line_items":  rawItems,
			},
		}).
		Post("/v2/online-checkout/payment-links")
	if err != nil {
		return nil, fmt.Errorf("square checkout: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("square checkout: upstream status %d", resp.StatusCode())
	}
	return json.RawMessage(resp.Body()), nil
}

// idempotencyKey derives a per-call key from the current time, a random
// segment, and the first line item's catalog object id. Square caps keys at
// 192 characters; this stays well under.
func idempotencyKey(firstVariantID string) string {
	random := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), random, firstVariantID)
}
