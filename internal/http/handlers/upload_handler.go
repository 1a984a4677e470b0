package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ewg-studio/go-site-backend/internal/http/middleware"
	"github.com/ewg-studio/go-site-backend/internal/storage"
)

// UploadHandler serves the staged-attachment cleanup route.
type UploadHandler struct {
	Files *storage.Staging
}

// Delete handles DELETE /uploads/:filename, where :filename is the staging
// handle returned by the contact submission. Every failure, a missing file
// included, comes back as 500: the client retries or gives up, and orphans
// are cleaned out-of-band.
func (h *UploadHandler) Delete(c *gin.Context) {
	handle := c.Param("filename")
	if err := h.Files.Release(handle); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("handle", handle).Msg("upload release failed")
		formFail(c, "could not delete the uploaded file")
		return
	}
	formOK(c, nil)
}
