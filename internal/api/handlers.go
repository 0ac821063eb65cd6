// internal/api/handlers.go
package api

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/StandfmAI/internal/services"
	"github.com/Corphon/StandfmAI/internal/utils"
)

// StatusReport describes which collaborators are configured.
type StatusReport struct {
	TranscriptionConfigured bool   `json:"transcriptionConfigured"`
	GenerationConfigured    bool   `json:"generationConfigured"`
	GenerationProvider      string `json:"generationProvider"`
	StorageDriver           string `json:"storageDriver"`
}

// Handler serves the HTTP API.
type Handler struct {
	Generation *services.GenerationService
	Progress   *services.ProgressService
	History    *services.HistoryService
	Profiles   *services.ProfileService
	Scripts    *services.ScriptLibraryService
	Export     *services.ExportService
	Metrics    *utils.AppMetrics
	Sockets    *ProgressSocketManager
	Response   *ResponseHelper

	status         StatusReport
	maxUploadBytes int64
	logger         *utils.Logger
}

// NewHandler wires the handler. maxUploadBytes <= 0 uses the service default.
func NewHandler(
	generation *services.GenerationService,
	progress *services.ProgressService,
	history *services.HistoryService,
	profiles *services.ProfileService,
	scripts *services.ScriptLibraryService,
	export *services.ExportService,
	metrics *utils.AppMetrics,
	status StatusReport,
	maxUploadBytes int64,
) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = services.DefaultMaxUploadBytes
	}
	return &Handler{
		Generation:     generation,
		Progress:       progress,
		History:        history,
		Profiles:       profiles,
		Scripts:        scripts,
		Export:         export,
		Metrics:        metrics,
		Sockets:        NewProgressSocketManager(),
		Response:       NewResponseHelper(),
		status:         status,
		maxUploadBytes: maxUploadBytes,
		logger:         utils.GetLogger(),
	}
}

// GetStatus reports provider readiness and the canned-response mode.
func (h *Handler) GetStatus(c *gin.Context) {
	h.Response.Success(c, gin.H{
		"mockMode":       h.Generation.MockMode(),
		"scriptMockMode": h.Generation.ScriptMockMode(),
		"providers":      h.status,
		"websocket":      h.Sockets.GetStatus(),
	})
}

// GetMetrics returns the in-process metrics snapshot.
func (h *Handler) GetMetrics(c *gin.Context) {
	h.Response.Success(c, h.Metrics.Collector().GetMetrics())
}

// ShareTarget is the payload a share-target launch carries.
type ShareTarget struct {
	Title    string `json:"title,omitempty"`
	Text     string `json:"text,omitempty"`
	URL      string `json:"url,omitempty"`
	HasFile  bool   `json:"hasFile,omitempty"`
	FileName string `json:"fileName,omitempty"`
	Error    bool   `json:"error,omitempty"`
}

// GetShare echoes the shared fields from the query string.
func (h *Handler) GetShare(c *gin.Context) {
	h.Response.Success(c, ShareTarget{
		Title:    c.Query("title"),
		Text:     c.Query("text"),
		URL:      c.Query("url"),
		HasFile:  c.Query("hasFile") == "true",
		FileName: c.Query("fileName"),
		Error:    c.Query("error") == "true",
	})
}

// PostShare accepts a share-target form post and redirects to GET /share with
// the shared fields. File contents cannot travel in a URL, so only the name does.
func (h *Handler) PostShare(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil && err != http.ErrNotMultipart {
		h.logger.Warn("Share target form could not be parsed", map[string]interface{}{"error": err.Error()})
		c.Redirect(http.StatusSeeOther, "/share?error=true")
		return
	}

	query := url.Values{}
	for _, field := range []string{"title", "text", "url"} {
		if v := c.PostForm(field); v != "" {
			query.Set(field, v)
		}
	}
	if header, err := c.FormFile("audio"); err == nil {
		query.Set("hasFile", "true")
		query.Set("fileName", header.Filename)
	}

	target := "/share"
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	c.Redirect(http.StatusSeeOther, target)
}
