package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ewg-studio/go-site-backend/internal/http/middleware"
	"github.com/ewg-studio/go-site-backend/internal/services"
)

// NewsletterHandler serves the mailing-list membership routes.
type NewsletterHandler struct {
	Svc *services.NewsletterService
}

type subscribeRequest struct {
	Email string `json:"email"`
}

type unsubscribeRequest struct {
	Email    string `json:"email"`
	Feedback string `json:"feedback"`
}

// Subscribe handles POST /send-email/newsletter-sub.
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	lg := middleware.LoggerFrom(c)

	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		lg.Warn().Err(err).Msg("subscribe body parse failed")
		formFail(c, "could not parse the request body")
		return
	}

	if err := h.Svc.Subscribe(c.Request.Context(), req.Email); err != nil {
		if rej, ok := services.AsRejection(err); ok {
			lg.Warn().Str("code", rej.Code).Msg("subscribe address rejected")
			formRejected(c, rej.Code)
			return
		}
		lg.Error().Err(err).Msg("subscribe notification failed")
		formFail(c, "could not process the subscription")
		return
	}
	formOK(c, nil)
}

// Unsubscribe handles POST /send-email/news-unsubscribe.
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	lg := middleware.LoggerFrom(c)

	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		lg.Warn().Err(err).Msg("unsubscribe body parse failed")
		formFail(c, "could not parse the request body")
		return
	}

	if err := h.Svc.Unsubscribe(c.Request.Context(), req.Email, req.Feedback); err != nil {
		if rej, ok := services.AsRejection(err); ok {
			lg.Warn().Str("code", rej.Code).Msg("unsubscribe address rejected")
			formRejected(c, rej.Code)
			return
		}
		lg.Error().Err(err).Msg("unsubscribe notification failed")
		formFail(c, "could not process the unsubscribe request")
		return
	}
	formOK(c, nil)
}
