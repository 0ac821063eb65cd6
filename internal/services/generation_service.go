// internal/services/generation_service.go
package services

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/Corphon/StandfmAI/internal/errors"
	"github.com/Corphon/StandfmAI/internal/models"
	"github.com/Corphon/StandfmAI/internal/utils"
)

// DefaultMaxUploadBytes is the upload ceiling.
const DefaultMaxUploadBytes int64 = 30 * 1024 * 1024

// Upload rejection messages shown to the user.
const (
	MsgNoAudio      = "No audio file provided"
	MsgFileTooLarge = "ファイルサイズは30MB以下にしてください"
)

const (
	msgBadFormat     = "対応形式: mp3, m4a, wav, webm, caf, aac, ogg"
	msgEmptyMemo     = "メモを入力してください"
	msgMissingFields = "応答に必要な項目が含まれていません"
)

var allowedAudioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".wav":  true,
	".webm": true,
	".caf":  true,
	".aac":  true,
	".ogg":  true,
}

// AudioUpload is one uploaded recording.
type AudioUpload struct {
	Data        []byte
	Filename    string
	ContentType string
	// Size is the declared size; 0 means len(Data).
	Size int64
	Tone models.Tone
}

// ProcessOutcome is the result of Process.
type ProcessOutcome struct {
	Result models.ProcessResult
	Mock   bool
	// Post is nil when the history write failed.
	Post *models.StoredPost
}

// ScriptRequest asks for a talking-point script.
type ScriptRequest struct {
	Memo       string
	Materials  []string
	Tone       models.Tone
	Length     models.ScriptLength
	AutoSelect bool
}

// ScriptOutcome is the result of ProcessScript.
type ScriptOutcome struct {
	Script    models.GeneratedScript
	Mock      bool
	Materials []models.SelectedMaterial
	// MaterialWarning is set when history exists but no material matched.
	MaterialWarning bool
}

// GenerationService sequences transcription and content generation.
// A nil transcriber or generator puts the service in canned-response mode.
type GenerationService struct {
	transcriber Transcriber
	generator   TextGenerator
	history     PostHistory
	profiles    ProfileReader
	materials   *MaterialService

	maxUploadBytes int64
	metrics        *utils.AppMetrics
	logger         *utils.Logger
}

// NewGenerationService wires the orchestrator. transcriber and generator may be nil.
func NewGenerationService(transcriber Transcriber, generator TextGenerator, history PostHistory, profiles ProfileReader) *GenerationService {
	return &GenerationService{
		transcriber:    transcriber,
		generator:      generator,
		history:        history,
		profiles:       profiles,
		materials:      NewMaterialService(history),
		maxUploadBytes: DefaultMaxUploadBytes,
		metrics:        utils.NewAppMetrics(),
		logger:         utils.GetLogger(),
	}
}

// SetMaxUploadBytes overrides the upload ceiling.
func (s *GenerationService) SetMaxUploadBytes(n int64) {
	if n > 0 {
		s.maxUploadBytes = n
	}
}

// SetMetrics replaces the metrics sink.
func (s *GenerationService) SetMetrics(m *utils.AppMetrics) {
	s.metrics = m
}

// Materials exposes the material selector bound to this service's history.
func (s *GenerationService) Materials() *MaterialService {
	return s.materials
}

// MockMode reports whether audio processing returns canned data.
func (s *GenerationService) MockMode() bool {
	return s.transcriber == nil || s.generator == nil
}

// ScriptMockMode reports whether script generation returns canned data.
func (s *GenerationService) ScriptMockMode() bool {
	return s.generator == nil
}

// ValidateAudioUpload checks presence, size and format of an upload.
func ValidateAudioUpload(upload AudioUpload, maxBytes int64) error {
	size := upload.Size
	if n := int64(len(upload.Data)); n > size {
		size = n
	}
	if size == 0 {
		return errors.NewValidationError(MsgNoAudio, nil)
	}
	if maxBytes > 0 && size > maxBytes {
		return errors.NewValidationError(MsgFileTooLarge, nil)
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	isAudioType := strings.HasPrefix(strings.ToLower(upload.ContentType), "audio/")
	if !allowedAudioExtensions[ext] && !isAudioType {
		return errors.NewValidationError(msgBadFormat, nil)
	}
	return nil
}

// Process turns an upload into promotional text and records it in history.
func (s *GenerationService) Process(ctx context.Context, upload AudioUpload, tracker *ProgressTracker) (*ProcessOutcome, error) {
	run := s.newRun(PipelineAudio, tracker)

	if err := ValidateAudioUpload(upload, s.maxUploadBytes); err != nil {
		return nil, run.fail(err)
	}

	if s.MockMode() {
		s.logger.Info("API keys not configured, returning mock data", nil)
		s.metrics.RecordMockResponse(string(PipelineAudio))

		result := mockProcessResult()
		result.Description = BuildDescription(result.Description, s.profile())
		post := s.record(result)
		run.complete("完了しました")
		return &ProcessOutcome{Result: result, Mock: true, Post: post}, nil
	}

	if err := run.enter(StageUploading, "アップロード中..."); err != nil {
		return nil, run.fail(err)
	}
	run.progress(100, "")

	if err := run.enter(StageTranscribing, "文字起こし中..."); err != nil {
		return nil, run.fail(err)
	}
	transcript, err := s.transcriber.Transcribe(ctx, upload.Data, upload.Filename)
	if err != nil {
		return nil, run.fail(asUpstreamCall(err))
	}
	run.progress(100, "")

	if err := run.enter(StageGenerating, "コンテンツ生成中..."); err != nil {
		return nil, run.fail(err)
	}
	raw, err := s.generator.Generate(ctx, BuildContentPrompt(transcript, upload.Tone))
	if err != nil {
		return nil, run.fail(asUpstreamCall(err))
	}
	run.progress(80, "")

	content, err := parseGeneratedContent(raw)
	if err != nil {
		return nil, run.fail(err)
	}

	result := models.ProcessResult{
		Transcript:  content.CleanedTranscript,
		Summary:     content.Summary,
		Titles:      content.Titles,
		Description: BuildDescription(content.StandfmDescription, s.profile()),
		XPost:       content.XPost,
	}
	post := s.record(result)

	run.complete("完了しました")
	return &ProcessOutcome{Result: result, Post: post}, nil
}

// ProcessScript generates a script from a memo and optional materials.
func (s *GenerationService) ProcessScript(ctx context.Context, req ScriptRequest, tracker *ProgressTracker) (*ScriptOutcome, error) {
	run := s.newRun(PipelineScript, tracker)

	if strings.TrimSpace(req.Memo) == "" {
		return nil, run.fail(errors.NewValidationError(msgEmptyMemo, nil))
	}

	outcome := &ScriptOutcome{}
	materials := req.Materials
	if req.AutoSelect && len(materials) == 0 {
		outcome.Materials = s.materials.Select(req.Memo, DefaultMaxMaterials)
		outcome.MaterialWarning = len(outcome.Materials) == 0 && s.materials.HasHistory()
		for _, m := range outcome.Materials {
			materials = append(materials, m.Content)
		}
	}

	if s.ScriptMockMode() {
		s.logger.Info("API key not configured, returning mock script", nil)
		s.metrics.RecordMockResponse(string(PipelineScript))

		outcome.Script = mockScript()
		outcome.Mock = true
		run.complete("完了しました")
		return outcome, nil
	}

	if err := run.enter(StageGenerating, "台本を生成中..."); err != nil {
		return nil, run.fail(err)
	}
	raw, err := s.generator.Generate(ctx, BuildScriptPrompt(req.Memo, materials, req.Tone, req.Length))
	if err != nil {
		return nil, run.fail(asUpstreamCall(err))
	}
	run.progress(80, "")

	script, err := parseGeneratedScript(raw)
	if err != nil {
		return nil, run.fail(err)
	}
	outcome.Script = WithFullText(*script)

	run.complete("完了しました")
	return outcome, nil
}

func (s *GenerationService) profile() *models.Profile {
	if s.profiles == nil {
		return nil
	}
	return s.profiles.Get()
}

// record appends result to history. Failures are logged, not returned.
func (s *GenerationService) record(result models.ProcessResult) *models.StoredPost {
	if s.history == nil {
		return nil
	}
	post, err := s.history.Add(result)
	if err != nil {
		s.logger.Error("Failed to save to history", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return post
}

func parseGeneratedContent(raw string) (*models.GeneratedContent, error) {
	var content models.GeneratedContent
	if err := decodeJSONObject(raw, &content); err != nil {
		return nil, err
	}
	if content.Summary == "" || content.XPost == "" || content.StandfmDescription == "" || content.CleanedTranscript == "" {
		return nil, errors.NewUpstreamParseError(msgMissingFields, nil)
	}
	if len(content.Titles) != 3 {
		return nil, errors.NewUpstreamParseError("タイトル案は3つ必要です", nil)
	}
	return &content, nil
}

func parseGeneratedScript(raw string) (*models.GeneratedScript, error) {
	var script models.GeneratedScript
	if err := decodeJSONObject(raw, &script); err != nil {
		return nil, err
	}
	if script.Title == "" || script.Opening == "" || script.Conclusion == "" || script.EstimatedTime == "" {
		return nil, errors.NewUpstreamParseError(msgMissingFields, nil)
	}
	if len(script.Body) == 0 {
		return nil, errors.NewUpstreamParseError("台本の本編が空です", nil)
	}
	return &script, nil
}

// asUpstreamCall classifies a collaborator error that carries no type yet.
func asUpstreamCall(err error) error {
	if errors.TypeOf(err) != "" {
		return err
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewUpstreamCallError("処理が中断されました", err)
	}
	return errors.NewUpstreamCallError(err.Error(), err)
}

// pipelineRun couples the stage machine with the optional progress tracker.
type pipelineRun struct {
	kind       PipelineKind
	pipeline   *Pipeline
	tracker    *ProgressTracker
	metrics    *utils.AppMetrics
	logger     *utils.Logger
	stageStart time.Time
}

func (s *GenerationService) newRun(kind PipelineKind, tracker *ProgressTracker) *pipelineRun {
	return &pipelineRun{
		kind:       kind,
		pipeline:   NewPipeline(kind),
		tracker:    tracker,
		metrics:    s.metrics,
		logger:     s.logger,
		stageStart: time.Now(),
	}
}

func (r *pipelineRun) closeStage() {
	if stage := r.pipeline.Stage(); stage != StageIdle {
		r.metrics.RecordStage(string(r.kind), string(stage), time.Since(r.stageStart))
	}
	r.stageStart = time.Now()
}

func (r *pipelineRun) enter(stage Stage, message string) error {
	r.closeStage()
	if err := r.pipeline.Advance(stage); err != nil {
		return err
	}
	if r.tracker != nil {
		r.tracker.EnterStage(stage, message)
	}
	return nil
}

func (r *pipelineRun) progress(pct int, message string) {
	if r.tracker != nil {
		r.tracker.UpdateProgress(pct, message)
	}
}

// complete walks any remaining stages, which canned responses skip, and finishes.
func (r *pipelineRun) complete(message string) {
	r.closeStage()
	for stage := r.pipeline.Stage(); !stage.Terminal(); stage = r.pipeline.Stage() {
		next, ok := NextStage(r.kind, stage)
		if !ok || r.pipeline.Advance(next) != nil {
			break
		}
	}
	if r.tracker != nil {
		r.tracker.Complete(message)
	}
}

func (r *pipelineRun) fail(err error) error {
	r.closeStage()
	if advanceErr := r.pipeline.Advance(StageError); advanceErr != nil {
		r.logger.Debug("Pipeline already finished, failure not recorded as a stage", map[string]interface{}{
			"pipeline": string(r.kind),
			"error":    advanceErr.Error(),
		})
	}
	r.metrics.RecordFailure(string(r.kind), string(errors.TypeOf(err)))
	if r.tracker != nil {
		r.tracker.Fail(errors.MessageOf(err))
	}
	return err
}
