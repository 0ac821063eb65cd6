// internal/api/library_handlers.go
package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/StandfmAI/internal/models"
	"github.com/Corphon/StandfmAI/internal/services"
)

// ListHistory returns stored posts, filtered by ?q= when given.
func (h *Handler) ListHistory(c *gin.Context) {
	h.Response.Success(c, h.History.Search(c.Query("q")))
}

func (h *Handler) GetHistoryPost(c *gin.Context) {
	post, err := h.History.Get(c.Param("id"))
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, post)
}

func (h *Handler) DeleteHistoryPost(c *gin.Context) {
	if err := h.History.Delete(c.Param("id")); err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, nil, "削除しました")
}

func (h *Handler) ClearHistory(c *gin.Context) {
	if err := h.History.Clear(); err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, nil, "履歴をすべて削除しました")
}

func (h *Handler) GetProfile(c *gin.Context) {
	h.Response.Success(c, h.Profiles.Get())
}

// SaveProfile replaces the profile wholesale.
func (h *Handler) SaveProfile(c *gin.Context) {
	var profile models.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		h.Response.BadRequest(c, "リクエストの形式が正しくありません")
		return
	}

	saved, err := h.Profiles.Save(profile)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, saved, "保存しました")
}

// PreviewProfile renders the description header with a placeholder summary.
func (h *Handler) PreviewProfile(c *gin.Context) {
	h.Response.Success(c, gin.H{"description": h.Profiles.PreviewDescription()})
}

// SaveScriptRequest is the body of POST /api/scripts.
type SaveScriptRequest struct {
	MemoText      string   `json:"memoText"`
	SourcePostIDs []string `json:"sourcePostIds"`
	ScriptText    string   `json:"scriptText"`
	Title         string   `json:"title"`
	Tone          string   `json:"tone"`
	Length        string   `json:"length"`
}

func (h *Handler) ListScripts(c *gin.Context) {
	h.Response.Success(c, h.Scripts.List())
}

func (h *Handler) SaveScript(c *gin.Context) {
	var req SaveScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "リクエストの形式が正しくありません")
		return
	}

	saved, err := h.Scripts.Save(models.SavedScript{
		MemoText:      req.MemoText,
		SourcePostIDs: req.SourcePostIDs,
		ScriptText:    req.ScriptText,
		Title:         req.Title,
		Tone:          models.Tone(req.Tone),
		Length:        models.ScriptLength(req.Length),
	})
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Created(c, saved, "保存しました")
}

func (h *Handler) GetScript(c *gin.Context) {
	script, err := h.Scripts.Get(c.Param("id"))
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, script)
}

func (h *Handler) DeleteScript(c *gin.Context) {
	if err := h.Scripts.Delete(c.Param("id")); err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, nil, "削除しました")
}

// ExportScript downloads a saved script as ?format=txt|md|docx|json (txt by default).
func (h *Handler) ExportScript(c *gin.Context) {
	format := services.ExportFormat(strings.TrimSpace(c.DefaultQuery("format", string(services.ExportText))))

	file, err := h.Export.ExportScript(c.Param("id"), format)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Download(c, file)
}
