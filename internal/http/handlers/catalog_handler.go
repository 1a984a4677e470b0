package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ewg-studio/go-site-backend/internal/http/middleware"
	"github.com/ewg-studio/go-site-backend/internal/services"
)

// CatalogHandler serves the cached Instagram and Square proxy routes.
type CatalogHandler struct {
	Svc *services.CatalogService
}

type stockRequest struct {
	CatalogObjectIDs []string `json:"catalogObjectIds"`
}

type checkoutRequest struct {
	// LineItems is the JSON array of Square line items, passed through as the
	// string the front end submits.
	LineItems string `json:"lineItems"`
}

// jsonContentType is used when relaying stored upstream payloads verbatim.
const jsonContentType = "application/json; charset=utf-8"

// Instagram handles GET /api/instagram: the cached first page of the feed.
func (h *CatalogHandler) Instagram(c *gin.Context) {
	feed, err := h.Svc.InstagramFeed(c.Request.Context())
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("instagram fetch failed")
		proxyFail(c)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// InstagramAfter handles GET /api/instagram/:after: the page following the
// given cursor, with the accumulated list updated as a side effect.
func (h *CatalogHandler) InstagramAfter(c *gin.Context) {
	feed, err := h.Svc.InstagramAfter(c.Request.Context(), c.Param("after"))
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("instagram page fetch failed")
		proxyFail(c)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// Square handles GET /api/square: the cached catalog item list.
func (h *CatalogHandler) Square(c *gin.Context) {
	raw, err := h.Svc.SquareCatalog(c.Request.Context())
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("square catalog fetch failed")
		proxyFail(c)
		return
	}
	c.Data(http.StatusOK, jsonContentType, raw)
}

// SquareImages handles GET /api/square_images: the cached catalog image list.
func (h *CatalogHandler) SquareImages(c *gin.Context) {
	raw, err := h.Svc.SquareImages(c.Request.Context())
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("square images fetch failed")
		proxyFail(c)
		return
	}
	c.Data(http.StatusOK, jsonContentType, raw)
}

// SquareStock handles POST /api/square_item_stock. Inventory counts are never
// cached.
func (h *CatalogHandler) SquareStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "could not parse the request body")
		return
	}

	raw, err := h.Svc.SquareStock(c.Request.Context(), req.CatalogObjectIDs)
	if err != nil {
		if errors.Is(err, services.ErrNoObjectIDs) {
			badRequest(c, err.Error())
			return
		}
		middleware.LoggerFrom(c).Error().Err(err).Msg("square stock fetch failed")
		proxyFail(c)
		return
	}
	c.Data(http.StatusOK, jsonContentType, raw)
}

// Checkout handles POST /api/checkout: proxies a Square payment-link
// creation. Experimental.
func (h *CatalogHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "could not parse the request body")
		return
	}

	raw, err := h.Svc.Checkout(c.Request.Context(), req.LineItems)
	if err != nil {
		if errors.Is(err, services.ErrNoLineItems) {
			badRequest(c, err.Error())
			return
		}
		middleware.LoggerFrom(c).Error().Err(err).Msg("payment link creation failed")
		proxyFail(c)
		return
	}
	c.Data(http.StatusOK, jsonContentType, raw)
}

// Data handles GET /api/data, a static payload kept for the front end's
// connectivity probe.
func (h *CatalogHandler) Data(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Hello from the site backend",
	})
}
