// Package handlers wires the HTTP surface to the service layer.
//
// Two response dialects coexist. The form routes (/send-email*, /uploads)
// speak the legacy envelope the existing front end already parses:
//
//	200 {"success":true, "files":[...]}
//	400 {"success":false, "errorCode":"<verdict code>"}
//	500 {"success":false, "message":"<description>"}
//
// The catalog proxy routes return upstream-shaped JSON on success; on any
// upstream failure they return a fixed generic 500 so no provider detail
// leaks to the browser (the detail is logged server-side instead).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FormResponse is the legacy envelope for the form routes.
type FormResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message,omitempty"`
	ErrorCode string   `json:"errorCode,omitempty"`
	Files     []string `json:"files,omitempty"`
}

// upstreamErrorMessage is the only error text the catalog routes ever emit.
const upstreamErrorMessage = "error requesting data from the upstream API"

func formOK(c *gin.Context, files []string) {
	c.JSON(http.StatusOK, FormResponse{Success: true, Files: files})
}

func formRejected(c *gin.Context, code string) {
	c.JSON(http.StatusBadRequest, FormResponse{Success: false, ErrorCode: code})
}

func formFail(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, FormResponse{Success: false, Message: message})
}

// proxyFail hides the upstream failure behind the fixed message.
func proxyFail(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, FormResponse{Success: false, Message: upstreamErrorMessage})
}

// badRequest reports a malformed request body on the catalog routes.
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, FormResponse{Success: false, Message: message})
}
