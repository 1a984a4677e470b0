package handlers

import (
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/ewg-studio/go-site-backend/internal/http/middleware"
	"github.com/ewg-studio/go-site-backend/internal/services"
	"github.com/ewg-studio/go-site-backend/internal/storage"
)

// ContactHandler serves the contact-form relay route.
type ContactHandler struct {
	Svc   *services.ContactService
	Files *storage.Staging
}

// fileField is the multipart field carrying the attachments.
const fileField = "files"

// SendEmail handles POST /send-email.
//
// The multipart body carries the text fields plus zero or more attachments.
// Attachments are staged to disk first so the mailer can attach by path; the
// staging handles come back in the success envelope so the client can delete
// them afterwards via DELETE /uploads/:filename.
func (h *ContactHandler) SendEmail(c *gin.Context) {
	lg := middleware.LoggerFrom(c)

	form := services.ContactForm{
		Name:    c.PostForm("name"),
		Email:   c.PostForm("email"),
		Message: c.PostForm("message"),
		Subject: c.PostForm("subject"),
		Phone:   c.PostForm("phone"),
		ListOpt: c.PostForm("listOpt"),
	}

	mf, err := c.MultipartForm()
	if err != nil {
		lg.Warn().Err(err).Msg("contact form parse failed")
		formFail(c, "could not parse the submitted form")
		return
	}

	staged, err := h.stageAll(mf.File[fileField])
	if err != nil {
		lg.Error().Err(err).Msg("attachment staging failed")
		h.releaseAll(c, staged)
		formFail(c, "could not store the submitted attachments")
		return
	}

	if err := h.Svc.Submit(c.Request.Context(), form, staged); err != nil {
		if rej, ok := services.AsRejection(err); ok {
			lg.Warn().Str("code", rej.Code).Msg("contact sender rejected")
			h.releaseAll(c, staged)
			formRejected(c, rej.Code)
			return
		}
		lg.Error().Err(err).Msg("contact relay failed")
		h.releaseAll(c, staged)
		formFail(c, "could not send the message")
		return
	}

	handles := make([]string, 0, len(staged))
	for _, f := range staged {
		handles = append(handles, f.Handle)
	}
	formOK(c, handles)
}

// stageAll copies every uploaded part to the staging directory. On the first
// failure it returns what was staged so far so the caller can release it.
func (h *ContactHandler) stageAll(parts []*multipart.FileHeader) ([]storage.StagedFile, error) {
	var staged []storage.StagedFile
	for _, fh := range parts {
		src, err := fh.Open()
		if err != nil {
			return staged, err
		}
		sf, err := h.Files.Stage(fh.Filename, src)
		src.Close()
		if err != nil {
			return staged, err
		}
		staged = append(staged, sf)
	}
	return staged, nil
}

// releaseAll best-effort deletes staged files after a failed submission.
func (h *ContactHandler) releaseAll(c *gin.Context, staged []storage.StagedFile) {
	lg := middleware.LoggerFrom(c)
	for _, f := range staged {
		if err := h.Files.Release(f.Handle); err != nil {
			lg.Warn().Err(err).Str("handle", f.Handle).Msg("staged file cleanup failed")
		}
	}
}
