// Package services – CatalogService
//
// The catalog proxy serves Instagram media and Square catalog data to the
// front end without exposing API credentials. Read endpoints go through the
// shared TTL cache (one entry per logical resource); the Instagram
// next-page path additionally accumulates fetched pages into the cached
// list so the front end can page through a growing feed.
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ewg-studio/go-site-backend/internal/cache"
	"github.com/ewg-studio/go-site-backend/internal/clients/instagram"
)

// Cache keys, one per logical resource. The set is fixed; keys are never
// derived from user input.
const (
	keyInstagram    = "instagramData"
	keySquare       = "squareData"
	keySquareImages = "squareImages"
)

// InstagramAPI is the Graph API surface the catalog service consumes.
type InstagramAPI interface {
	MediaPage(ctx context.Context, after string, limit int) (*instagram.Page, error)
}

// SquareAPI is the Square surface the catalog service consumes.
type SquareAPI interface {
	ListCatalog(ctx context.Context, types string) (json.RawMessage, error)
	RetrieveStock(ctx context.Context, catalogObjectIDs []string) (json.RawMessage, error)
	CreatePaymentLink(ctx context.Context, lineItemsJSON []byte) (json.RawMessage, error)
}

// CatalogService fronts the upstream catalog APIs with the shared cache.
type CatalogService struct {
	Cache     *cache.Store
	Instagram InstagramAPI
	Square    SquareAPI

	// PageSize is the Instagram page size; a fetched page shorter than
	// this signals the last page. Defaults to 16 when unset.
	PageSize int
}

// pageSize returns the configured page size with the legacy default.
func (s *CatalogService) pageSize() int {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return 16
}

// nextCursor applies the cursor-exhaustion rule: a short page means there is
// nothing after it, regardless of what the upstream paging block says.
func (s *CatalogService) nextCursor(p *instagram.Page) string {
	if len(p.Items) < s.pageSize() {
		return ""
	}
	return p.NextCursor
}

// InstagramFeed returns the cached first page of the media feed, fetching
// and caching it when absent or stale.
func (s *CatalogService) InstagramFeed(ctx context.Context) (*instagram.Feed, error) {
	v, err := s.Cache.GetOrFetch(ctx, keyInstagram, func(ctx context.Context) (any, error) {
		upstreamCalls.WithLabelValues("instagram").Inc()
		page, err := s.Instagram.MediaPage(ctx, "", s.pageSize())
		if err != nil {
			return nil, err
		}
		return &instagram.Feed{
			Data:   page.Items,
			Paging: instagram.Paging{Cursors: instagram.Cursors{After: s.nextCursor(page)}},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*instagram.Feed), nil
}

// InstagramAfter fetches the page following the given cursor, merges it into
// the accumulated list under the shared instagramData key, and returns the
// freshly fetched page (not the accumulation). Pages are appended in fetch
// order with no de-duplication: fetching the same cursor twice appends its
// items twice, matching the upstream pagination contract as observed.
//
// First-page and next-page requests share one logical cursor/list state for
// the whole process, so two clients paging concurrently interleave into the
// same accumulated list.
func (s *CatalogService) InstagramAfter(ctx context.Context, after string) (*instagram.Feed, error) {
	upstreamCalls.WithLabelValues("instagram").Inc()
	page, err := s.Instagram.MediaPage(ctx, after, s.pageSize())
	if err != nil {
		return nil, err
	}
	next := s.nextCursor(page)

	var prior []json.RawMessage
	if v, ok := s.Cache.Get(keyInstagram); ok {
		if feed, ok := v.(*instagram.Feed); ok {
			prior = feed.Data
		}
	}

	merged := make([]json.RawMessage, 0, len(prior)+len(page.Items))
	merged = append(merged, prior...)
	merged = append(merged, page.Items...)
	s.Cache.Put(keyInstagram, &instagram.Feed{
		Data:   merged,
		Paging: instagram.Paging{Cursors: instagram.Cursors{After: next}},
	})

	return &instagram.Feed{
		Data:   page.Items,
		Paging: instagram.Paging{Cursors: instagram.Cursors{After: next}},
	}, nil
}

// SquareCatalog returns the cached catalog item list.
func (s *CatalogService) SquareCatalog(ctx context.Context) (json.RawMessage, error) {
	return s.squareCached(ctx, keySquare, "ITEM")
}

// SquareImages returns the cached catalog image list. It rides the same
// shared TTL mechanism as every other entry.
func (s *CatalogService) SquareImages(ctx context.Context) (json.RawMessage, error) {
	return s.squareCached(ctx, keySquareImages, "IMAGE")
}

func (s *CatalogService) squareCached(ctx context.Context, key, types string) (json.RawMessage, error) {
	v, err := s.Cache.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		upstreamCalls.WithLabelValues("square").Inc()
		return s.Square.ListCatalog(ctx, types)
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// SquareStock proxies an inventory count lookup without caching: stock has
// to reflect the current state.
func (s *CatalogService) SquareStock(ctx context.Context, catalogObjectIDs []string) (json.RawMessage, error) {
	if len(catalogObjectIDs) == 0 {
		return nil, ErrNoObjectIDs
	}
	upstreamCalls.WithLabelValues("square").Inc()
	return s.Square.RetrieveStock(ctx, catalogObjectIDs)
}

// Checkout proxies a payment-link creation for the given line items (the
// JSON array string as submitted by the front end). Experimental.
func (s *CatalogService) Checkout(ctx context.Context, lineItemsJSON string) (json.RawMessage, error) {
	if lineItemsJSON == "" {
		return nil, ErrNoLineItems
	}
	upstreamCalls.WithLabelValues("square").Inc()
	raw, err := s.Square.CreatePaymentLink(ctx, []byte(lineItemsJSON))
	if err != nil {
		return nil, fmt.Errorf("create payment link: %w", err)
	}
	return raw, nil
}
