package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Corphon/StandfmAI/internal/models"
	"github.com/Corphon/StandfmAI/internal/services"
	"github.com/Corphon/StandfmAI/internal/services/mocks"
	"github.com/Corphon/StandfmAI/internal/storage"
	"github.com/Corphon/StandfmAI/internal/utils"
)

type testServer struct {
	router  *gin.Engine
	handler *Handler
	metrics *utils.MetricsCollector
}

func newTestServer(t *testing.T, transcriber services.Transcriber, generator services.TextGenerator, maxUpload int64) *testServer {
	t.Helper()

	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	collector := utils.NewMetricsCollector()
	metrics := utils.NewAppMetricsWith(collector, utils.NewLogger(&bytes.Buffer{}))

	history := services.NewHistoryService(store)
	profiles := services.NewProfileService(store)
	scripts := services.NewScriptLibraryService(store)
	generation := services.NewGenerationService(transcriber, generator, history, profiles)
	generation.SetMetrics(metrics)
	if maxUpload > 0 {
		generation.SetMaxUploadBytes(maxUpload)
	}

	handler := NewHandler(generation, services.NewProgressService(), history, profiles, scripts,
		services.NewExportService(scripts, t.TempDir()), metrics,
		StatusReport{GenerationProvider: "google", StorageDriver: "file"}, maxUpload)

	return &testServer{router: NewRouter(handler, nil, false), handler: handler, metrics: collector}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func audioRequest(t *testing.T, filename string, audio []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("audio", filename)
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/process", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func TestProcessMockMode(t *testing.T) {
	s := newTestServer(t, nil, nil, 0)

	rec := s.do(audioRequest(t, "episode.mp3", []byte("audio"), map[string]string{"tone": "casual", "taskId": "t-1"}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProcessResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.True(t, resp.Mock)
	assert.Equal(t, "t-1", resp.TaskID)
	assert.NotEmpty(t, resp.PostID)
	assert.Len(t, resp.Data.Titles, 3)

	assert.Len(t, s.handler.History.List(), 1)
	tracker, ok := s.handler.Progress.GetTracker("t-1")
	require.True(t, ok)
	assert.Equal(t, services.StatusCompleted, tracker.Snapshot().Status)
}

func TestProcessMissingFile(t *testing.T) {
	s := newTestServer(t, nil, nil, 0)

	rec := s.do(audioRequest(t, "", nil, map[string]string{"tone": "casual"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp APIResponse
	decode(t, rec, &resp)
	assert.False(t, resp.Success)
	assert.Equal(t, services.MsgNoAudio, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
}

func TestProcessOversizeNeverTranscribes(t *testing.T) {
	ctrl := gomock.NewController(t)
	transcriber := mocks.NewMockTranscriber(ctrl)
	generator := mocks.NewMockTextGenerator(ctrl)
	s := newTestServer(t, transcriber, generator, 1024)

	rec := s.do(audioRequest(t, "big.mp3", bytes.Repeat([]byte("a"), 4096), nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp APIResponse
	decode(t, rec, &resp)
	assert.Equal(t, services.MsgFileTooLarge, resp.Error)
}

func TestProcessUpstreamFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	transcriber := mocks.NewMockTranscriber(ctrl)
	generator := mocks.NewMockTextGenerator(ctrl)
	s := newTestServer(t, transcriber, generator, 0)

	transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).Return("文字起こし", nil).Times(2)
	generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("JSONはありません", nil)
	generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("", assert.AnError)

	rec := s.do(audioRequest(t, "a.m4a", []byte("audio"), nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, s.handler.History.List())

	rec = s.do(audioRequest(t, "a.m4a", []byte("audio"), nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp APIResponse
	decode(t, rec, &resp)
	assert.Equal(t, "UPSTREAM_CALL_ERROR", resp.Code)
}

func TestProcessSensitiveUpstreamMessageIsHidden(t *testing.T) {
	ctrl := gomock.NewController(t)
	transcriber := mocks.NewMockTranscriber(ctrl)
	s := newTestServer(t, transcriber, mocks.NewMockTextGenerator(ctrl), 0)

	transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", assertError("OpenAI API error (401): Incorrect API key provided: sk-abc"))

	rec := s.do(audioRequest(t, "a.m4a", []byte("audio"), nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp APIResponse
	decode(t, rec, &resp)
	assert.Equal(t, genericFailureMessage, resp.Error)
}

type assertError string

func (e assertError) Error() string { return string(e) }

func TestGenerateScript(t *testing.T) {
	s := newTestServer(t, nil, nil, 0)

	rec := s.do(jsonRequest(http.MethodPost, "/api/script", ScriptRequest{Memo: "朝活について", Tone: "polite", Length: "short"}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScriptResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Mock)
	assert.NotEmpty(t, resp.Script.FullText)
	assert.NotEmpty(t, resp.TaskID)

	rec = s.do(jsonRequest(http.MethodPost, "/api/script", ScriptRequest{Memo: " "}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/script", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)
}

func TestSelectMaterials(t *testing.T) {
	s := newTestServer(t, nil, nil, 0)
	_, err := s.handler.History.Add(models.ProcessResult{Titles: []string{"🌅 朝活のすすめ"}, XPost: "朝活はじめました"})
	require.NoError(t, err)

	rec := s.do(jsonRequest(http.MethodPost, "/api/materials/select", SelectMaterialsRequest{Query: "朝活", MaxResults: 3}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.SelectedMaterial `json:"data"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "朝活はじめました", resp.Data[0].Content)
}

func TestHistoryEndpoints(t *testing.T) {
	s := newTestServer(t, nil, nil, 0)
	post, err := s.handler.History.Add(models.ProcessResult{Titles: []string{"🎙️ 配信"}, Summary: "要約"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/api/history?q=要約", nil)).Code)
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/api/history/"+post.ID, nil)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodGet, "/api/history/missing", nil)).Code)
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodDelete, "/api/history/"+post.ID, nil)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodDelete, "/api/history/"+post.ID, nil)).Code)
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodDelete, "/api/history", nil)).Code)
}

func TestProfileEndpoints(t *testing.T) {
	s := newTestServer(t, nil, nil, 0)

	rec := s.do(jsonRequest(http.MethodPut, "/api/profile", models.Profile{ChannelDescription: "X"}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/profile/preview", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			Description string `json:"description"`
		} `json:"data"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "▼このチャンネルでは\nX\n\n【AI要約】\n"+services.PreviewPlaceholder, resp.Data.Description)
}

func TestScriptLibraryEndpoints(t *testing.T) {
	s := newTestServer(t, nil, nil, 0)

	rec := s.do(jsonRequest(http.MethodPost, "/api/scripts", SaveScriptRequest{Title: "朝活", ScriptText: "【タイトル】朝活"}))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data models.SavedScript `json:"data"`
	}
	decode(t, rec, &created)
	require.NotEmpty(t, created.Data.ID)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/scripts/"+created.Data.ID+"/export?format=md", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# 朝活", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/scripts/"+created.Data.ID+"/export?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusBadRequest, s.do(jsonRequest(http.MethodPost, "/api/scripts", SaveScriptRequest{})).Code)
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodDelete, "/api/scripts/"+created.Data.ID, nil)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodGet, "/api/scripts/"+created.Data.ID, nil)).Code)
}

func TestStatusAndMetrics(t *testing.T) {
	s := newTestServer(t, nil, nil, 0)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), s.metrics.GetCounterValue("api_requests_total"))
}

func TestShareTarget(t *testing.T) {
	s := newTestServer(t, nil, nil, 0)

	form := url.Values{"title": {"タイトル"}, "url": {"https://stand.fm/episodes/1"}}
	req := httptest.NewRequest(http.MethodPost, "/share", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := s.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/share", location.Path)
	assert.Equal(t, "タイトル", location.Query().Get("title"))
	assert.Empty(t, location.Query().Get("hasFile"))

	rec = s.do(httptest.NewRequest(http.MethodGet, location.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data ShareTarget `json:"data"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "https://stand.fm/episodes/1", resp.Data.URL)
}

func TestShareTargetWithFile(t *testing.T) {
	s := newTestServer(t, nil, nil, 0)

	req := audioRequest(t, "memo.m4a", []byte("audio"), map[string]string{"text": "共有"})
	req.URL.Path = "/share"
	rec := s.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "true", location.Query().Get("hasFile"))
	assert.Equal(t, "memo.m4a", location.Query().Get("fileName"))
	assert.Equal(t, "共有", location.Query().Get("text"))
}

func TestShareTargetRejectsOversizeBody(t *testing.T) {
	s := newTestServer(t, nil, nil, 1024)

	req := audioRequest(t, "memo.m4a", bytes.Repeat([]byte("a"), 1024+multipartOverhead+1), map[string]string{"text": "共有"})
	req.URL.Path = "/share"
	rec := s.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/share?error=true", rec.Header().Get("Location"))
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil, nil, 0)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
