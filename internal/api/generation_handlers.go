// internal/api/generation_handlers.go
package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Corphon/StandfmAI/internal/errors"
	"github.com/Corphon/StandfmAI/internal/models"
	"github.com/Corphon/StandfmAI/internal/services"
)

// multipartOverhead allows for form boundaries and the small text fields.
const multipartOverhead = 1 << 20

const sseHeartbeat = 15 * time.Second

// ProcessResponse is the body of a successful POST /api/process.
type ProcessResponse struct {
	Success bool                 `json:"success"`
	Mock    bool                 `json:"mock,omitempty"`
	Data    models.ProcessResult `json:"data"`
	PostID  string               `json:"postId,omitempty"`
	TaskID  string               `json:"taskId"`
}

// ScriptRequest is the body of POST /api/script.
type ScriptRequest struct {
	Memo                string   `json:"memo"`
	Materials           []string `json:"materials"`
	Tone                string   `json:"tone"`
	Length              string   `json:"length"`
	AutoSelectMaterials bool     `json:"autoSelectMaterials"`
	TaskID              string   `json:"taskId"`
}

// ScriptResponse is the body of a successful POST /api/script.
type ScriptResponse struct {
	Success         bool                      `json:"success"`
	Mock            bool                      `json:"mock,omitempty"`
	Script          models.GeneratedScript    `json:"script"`
	Materials       []models.SelectedMaterial `json:"materials,omitempty"`
	MaterialWarning bool                      `json:"materialWarning,omitempty"`
	TaskID          string                    `json:"taskId"`
}

// SelectMaterialsRequest is the body of POST /api/materials/select.
type SelectMaterialsRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
}

func taskIDOrNew(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.New().String()
}

// TaskResponse is the body of POST /api/tasks.
type TaskResponse struct {
	TaskID string `json:"taskId"`
}

// CreateTask registers a task id so clients can subscribe to its progress
// before they start the upload.
func (h *Handler) CreateTask(c *gin.Context) {
	taskID := uuid.New().String()
	h.Progress.CreateTracker(taskID)
	h.Response.Created(c, TaskResponse{TaskID: taskID})
}

// abortTask marks tracker failed so its task id can be reused, then answers with err.
func (h *Handler) abortTask(c *gin.Context, tracker *services.ProgressTracker, err error) {
	if tracker != nil {
		tracker.Fail(errors.MessageOf(err))
	}
	h.Response.FromError(c, err)
}

// ProcessAudio transcribes an uploaded recording and generates its promotional text.
// A task id given in the query or the X-Task-ID header is claimed before the
// body is read, so its progress can be followed during the upload.
func (h *Handler) ProcessAudio(c *gin.Context) {
	var tracker *services.ProgressTracker
	taskID := strings.TrimSpace(c.Query("taskId"))
	if taskID == "" {
		taskID = strings.TrimSpace(c.GetHeader(taskIDHeader))
	}
	if taskID != "" {
		claimed, err := h.Progress.ClaimTracker(taskID)
		if err != nil {
			h.Response.FromError(c, err)
			return
		}
		tracker = claimed
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.abortTask(c, tracker, errors.NewValidationError(services.MsgFileTooLarge, err))
			return
		}
		h.abortTask(c, tracker, errors.NewValidationError(services.MsgNoAudio, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.abortTask(c, tracker, errors.NewValidationError(services.MsgNoAudio, err))
		return
	}

	if tracker == nil {
		taskID = taskIDOrNew(c.PostForm("taskId"))
		claimed, err := h.Progress.ClaimTracker(taskID)
		if err != nil {
			h.Response.FromError(c, err)
			return
		}
		tracker = claimed
	}

	outcome, err := h.Generation.Process(c.Request.Context(), services.AudioUpload{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Tone:        models.ParseTone(c.PostForm("tone")),
	}, tracker)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	response := ProcessResponse{
		Success: true,
		Mock:    outcome.Mock,
		Data:    outcome.Result,
		TaskID:  taskID,
	}
	if outcome.Post != nil {
		response.PostID = outcome.Post.ID
	}
	c.JSON(http.StatusOK, response)
}

// GenerateScript builds a talking-point script from a memo.
func (h *Handler) GenerateScript(c *gin.Context) {
	var req ScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "リクエストの形式が正しくありません")
		return
	}

	taskID := taskIDOrNew(req.TaskID)
	tracker, err := h.Progress.ClaimTracker(taskID)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	outcome, err := h.Generation.ProcessScript(c.Request.Context(), services.ScriptRequest{
		Memo:       req.Memo,
		Materials:  req.Materials,
		Tone:       models.ParseTone(req.Tone),
		Length:     models.ParseScriptLength(req.Length),
		AutoSelect: req.AutoSelectMaterials,
	}, tracker)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, ScriptResponse{
		Success:         true,
		Mock:            outcome.Mock,
		Script:          outcome.Script,
		Materials:       outcome.Materials,
		MaterialWarning: outcome.MaterialWarning,
		TaskID:          taskID,
	})
}

// SelectMaterials ranks past posts against a query.
func (h *Handler) SelectMaterials(c *gin.Context) {
	var req SelectMaterialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "リクエストの形式が正しくありません")
		return
	}
	h.Response.Success(c, h.Generation.Materials().Select(req.Query, req.MaxResults))
}

// SubscribeProgress streams tracker updates as server-sent events.
func (h *Handler) SubscribeProgress(c *gin.Context) {
	taskID := c.Param("taskID")
	tracker, ok := h.Progress.GetTracker(taskID)
	if !ok {
		h.Response.NotFound(c, ErrorTaskNotFound, "タスクが見つかりません")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	updates := tracker.Subscribe()
	defer tracker.Unsubscribe(updates)

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"taskId\":%q}\n\n", taskID)
	c.Writer.Flush()

	for {
		select {
		case <-clientGone:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			data, _ := json.Marshal(update)
			fmt.Fprintf(c.Writer, "event: progress\ndata: %s\n\n", data)
			c.Writer.Flush()

			if update.Status != services.StatusRunning {
				return
			}
		case <-ticker.C:
			fmt.Fprintf(c.Writer, "event: heartbeat\ndata: {\"time\":%d}\n\n", time.Now().Unix())
			c.Writer.Flush()
		}
	}
}
