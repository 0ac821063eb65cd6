package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/Corphon/StandfmAI/internal/errors"
	"github.com/Corphon/StandfmAI/internal/models"
	"github.com/Corphon/StandfmAI/internal/services/mocks"
	"github.com/Corphon/StandfmAI/internal/utils"
)

const validContentJSON = `{
  "cleanedTranscript": "整えた文字起こし",
  "summary": "今日の要約",
  "titles": ["🎙️ 一つ目", "📻 二つ目", "🌟 三つ目"],
  "standfmDescription": "【今日のテーマ】朝活",
  "xPost": "朝活の話をしました #standfm"
}`

const validScriptJSON = `{
  "title": "朝活のすすめ",
  "opening": "おはようございます",
  "body": [{"heading": "1. きっかけ", "points": ["早起き"]}],
  "conclusion": "また明日",
  "estimatedTime": "5分"
}`

type GenerationServiceTestSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	transcriber *mocks.MockTranscriber
	generator   *mocks.MockTextGenerator
	history     *mocks.MockPostHistory
	profiles    *mocks.MockProfileReader
	metrics     *utils.MetricsCollector
	progress    *ProgressService
	service     *GenerationService
}

func (s *GenerationServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.transcriber = mocks.NewMockTranscriber(s.ctrl)
	s.generator = mocks.NewMockTextGenerator(s.ctrl)
	s.history = mocks.NewMockPostHistory(s.ctrl)
	s.profiles = mocks.NewMockProfileReader(s.ctrl)
	s.metrics = utils.NewMetricsCollector()
	s.progress = NewProgressService()

	s.service = NewGenerationService(s.transcriber, s.generator, s.history, s.profiles)
	s.service.SetMetrics(utils.NewAppMetricsWith(s.metrics, utils.GetLogger()))
}

func (s *GenerationServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestGenerationServiceSuite(t *testing.T) {
	suite.Run(t, new(GenerationServiceTestSuite))
}

func audioUpload() AudioUpload {
	return AudioUpload{
		Data:        []byte("fake audio bytes"),
		Filename:    "episode.m4a",
		ContentType: "audio/mp4",
		Tone:        models.ToneCasual,
	}
}

func (s *GenerationServiceTestSuite) TestProcessSuccess() {
	ctx := context.Background()
	tracker := s.progress.CreateTracker("task")

	s.transcriber.EXPECT().Transcribe(ctx, []byte("fake audio bytes"), "episode.m4a").Return("えー、今日は朝活の話です", nil)
	s.generator.EXPECT().Generate(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
		s.Contains(prompt, "えー、今日は朝活の話です")
		s.Contains(prompt, ContentToneInstruction(models.ToneCasual))
		return "はい、こちらです。\n```json\n" + validContentJSON + "\n```", nil
	})
	s.profiles.EXPECT().Get().Return(&models.Profile{ChannelDescription: "朝活チャンネル"})
	s.history.EXPECT().Add(gomock.Any()).DoAndReturn(func(result models.ProcessResult) (*models.StoredPost, error) {
		s.Equal("整えた文字起こし", result.Transcript)
		return &models.StoredPost{ID: "post-1", Title: "一つ目"}, nil
	})

	outcome, err := s.service.Process(ctx, audioUpload(), tracker)
	s.Require().NoError(err)

	s.False(outcome.Mock)
	s.Equal("post-1", outcome.Post.ID)
	s.Equal("今日の要約", outcome.Result.Summary)
	s.Len(outcome.Result.Titles, 3)
	s.Equal("▼このチャンネルでは\n朝活チャンネル\n\n【AI要約】\n【今日のテーマ】朝活", outcome.Result.Description)

	snap := tracker.Snapshot()
	s.Equal(StatusCompleted, snap.Status)
	s.Equal(StageDone, snap.Stage)
	s.Equal(100, snap.Progress)
	s.Equal(int64(1), s.metrics.GetCounterValue("pipeline_audio_transcribing_total"))
}

func (s *GenerationServiceTestSuite) TestProcessMockModeSkipsCollaborators() {
	svc := NewGenerationService(s.transcriber, nil, s.history, s.profiles)
	svc.SetMetrics(utils.NewAppMetricsWith(s.metrics, utils.GetLogger()))
	tracker := s.progress.CreateTracker("mock")

	s.profiles.EXPECT().Get().Return(&models.Profile{ChannelDescription: "X"})
	s.history.EXPECT().Add(gomock.Any()).Return(&models.StoredPost{ID: "mock-post"}, nil)

	outcome, err := svc.Process(context.Background(), audioUpload(), tracker)
	s.Require().NoError(err)

	s.True(outcome.Mock)
	s.Equal(mockProcessResult().Titles, outcome.Result.Titles)
	s.Equal(BuildDescription(mockProcessResult().Description, &models.Profile{ChannelDescription: "X"}), outcome.Result.Description)
	s.Equal(StageDone, tracker.Snapshot().Stage)
	s.Equal(int64(1), s.metrics.GetCounterValue("mock_responses_audio"))
}

func (s *GenerationServiceTestSuite) TestProcessMockModeStillValidates() {
	svc := NewGenerationService(nil, nil, s.history, s.profiles)

	_, err := svc.Process(context.Background(), AudioUpload{Filename: "a.mp3"}, nil)
	s.True(errors.IsValidationError(err))
	s.Equal(MsgNoAudio, errors.MessageOf(err))
}

func (s *GenerationServiceTestSuite) TestProcessRejectsOversizeBeforeTranscribing() {
	tracker := s.progress.CreateTracker("big")
	upload := audioUpload()
	upload.Size = DefaultMaxUploadBytes + 1

	_, err := s.service.Process(context.Background(), upload, tracker)
	s.True(errors.IsValidationError(err))
	s.Equal(MsgFileTooLarge, errors.MessageOf(err))

	snap := tracker.Snapshot()
	s.Equal(StatusFailed, snap.Status)
	s.Equal(MsgFileTooLarge, snap.Message)
	s.Equal(int64(1), s.metrics.GetCounterValue("failures_audio_validation_error"))
}

func (s *GenerationServiceTestSuite) TestProcessRespectsConfiguredLimit() {
	s.service.SetMaxUploadBytes(4)

	_, err := s.service.Process(context.Background(), audioUpload(), nil)
	s.True(errors.IsValidationError(err))
}

func (s *GenerationServiceTestSuite) TestProcessRejectsUnsupportedFormat() {
	upload := audioUpload()
	upload.Filename = "notes.txt"
	upload.ContentType = "text/plain"

	_, err := s.service.Process(context.Background(), upload, nil)
	s.True(errors.IsValidationError(err))
	s.Equal(msgBadFormat, errors.MessageOf(err))
}

func (s *GenerationServiceTestSuite) TestProcessResponseWithoutJSON() {
	s.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).Return("transcript", nil)
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("申し訳ありませんが生成できませんでした", nil)

	tracker := s.progress.CreateTracker("nojson")
	_, err := s.service.Process(context.Background(), audioUpload(), tracker)

	s.True(errors.IsUpstreamParseError(err))
	s.Equal(StageError, tracker.Snapshot().Stage)
}

func (s *GenerationServiceTestSuite) TestProcessRejectsWrongTitleCount() {
	s.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).Return("transcript", nil)
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(
		`{"cleanedTranscript":"t","summary":"s","titles":["a","b"],"standfmDescription":"d","xPost":"x"}`, nil)

	_, err := s.service.Process(context.Background(), audioUpload(), nil)
	s.True(errors.IsUpstreamParseError(err))
}

func (s *GenerationServiceTestSuite) TestProcessTranscriptionFailure() {
	s.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).Return("", fmt.Errorf("OpenAI API error (401): invalid key"))

	tracker := s.progress.CreateTracker("auth")
	_, err := s.service.Process(context.Background(), audioUpload(), tracker)

	s.True(errors.IsUpstreamCallError(err))
	s.Equal("OpenAI API error (401): invalid key", tracker.Snapshot().Message)
}

func (s *GenerationServiceTestSuite) TestProcessCancelled() {
	s.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).Return("", context.Canceled)

	_, err := s.service.Process(context.Background(), audioUpload(), nil)
	s.True(errors.IsUpstreamCallError(err))
	s.Equal("処理が中断されました", errors.MessageOf(err))
}

func (s *GenerationServiceTestSuite) TestProcessHistoryFailureIsNotFatal() {
	s.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).Return("transcript", nil)
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(validContentJSON, nil)
	s.profiles.EXPECT().Get().Return(models.DefaultProfile())
	s.history.EXPECT().Add(gomock.Any()).Return(nil, errors.NewPersistenceError("履歴の保存に失敗しました", nil))

	outcome, err := s.service.Process(context.Background(), audioUpload(), nil)
	s.Require().NoError(err)
	s.Nil(outcome.Post)
	s.Equal("【今日のテーマ】朝活", outcome.Result.Description)
}

func (s *GenerationServiceTestSuite) TestProcessScriptWithAutoSelect() {
	posts := []models.StoredPost{
		{ID: "p1", Title: "朝活のすすめ", XPost: "朝活を始めました", CreatedAt: time.Now().Add(-time.Hour)},
		{ID: "p2", Title: "料理", Summary: "カレー", CreatedAt: time.Now().Add(-100 * 24 * time.Hour)},
	}
	s.history.EXPECT().List().Return(posts).AnyTimes()
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
		s.Contains(prompt, "## 参考素材（過去の投稿から）:\n1. 朝活を始めました")
		s.Contains(prompt, LengthInstruction(models.LengthShort))
		return validScriptJSON, nil
	})

	tracker := s.progress.CreateTracker("script")
	outcome, err := s.service.ProcessScript(context.Background(), ScriptRequest{
		Memo:       "朝活 について",
		Tone:       models.TonePolite,
		Length:     models.LengthShort,
		AutoSelect: true,
	}, tracker)
	s.Require().NoError(err)

	s.False(outcome.Mock)
	s.False(outcome.MaterialWarning)
	s.Require().Len(outcome.Materials, 1)
	s.Equal("p1", outcome.Materials[0].PostID)
	s.Equal("朝活のすすめ", outcome.Script.Title)
	s.Equal(AssembleScript(outcome.Script), outcome.Script.FullText)
	s.Equal(StatusCompleted, tracker.Snapshot().Status)
}

func (s *GenerationServiceTestSuite) TestProcessScriptMaterialWarning() {
	s.history.EXPECT().List().Return([]models.StoredPost{
		{ID: "p1", Title: "料理", CreatedAt: time.Now().Add(-100 * 24 * time.Hour)},
	}).AnyTimes()
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
		s.NotContains(prompt, "参考素材")
		return validScriptJSON, nil
	})

	outcome, err := s.service.ProcessScript(context.Background(), ScriptRequest{Memo: "朝活", AutoSelect: true}, nil)
	s.Require().NoError(err)
	s.True(outcome.MaterialWarning)
	s.Empty(outcome.Materials)
}

func (s *GenerationServiceTestSuite) TestProcessScriptExplicitMaterialsSkipSelection() {
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
		s.Contains(prompt, "1. 手で選んだ素材")
		return validScriptJSON, nil
	})

	_, err := s.service.ProcessScript(context.Background(), ScriptRequest{
		Memo:       "朝活",
		Materials:  []string{"手で選んだ素材"},
		AutoSelect: true,
	}, nil)
	s.Require().NoError(err)
}

func (s *GenerationServiceTestSuite) TestProcessScriptEmptyMemo() {
	_, err := s.service.ProcessScript(context.Background(), ScriptRequest{Memo: "  \n"}, nil)
	s.True(errors.IsValidationError(err))
	s.Equal(msgEmptyMemo, errors.MessageOf(err))
}

func (s *GenerationServiceTestSuite) TestProcessScriptMissingBody() {
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(
		`{"title":"t","opening":"o","body":[],"conclusion":"c","estimatedTime":"5分"}`, nil)

	_, err := s.service.ProcessScript(context.Background(), ScriptRequest{Memo: "memo"}, nil)
	s.True(errors.IsUpstreamParseError(err))
}

func (s *GenerationServiceTestSuite) TestProcessScriptMockMode() {
	svc := NewGenerationService(nil, nil, s.history, s.profiles)
	tracker := s.progress.CreateTracker("mock-script")

	outcome, err := svc.ProcessScript(context.Background(), ScriptRequest{Memo: "memo"}, tracker)
	s.Require().NoError(err)

	s.True(outcome.Mock)
	s.Equal(mockScript(), outcome.Script)
	s.Equal(StageDone, tracker.Snapshot().Stage)
}

func TestValidateAudioUpload(t *testing.T) {
	tests := []struct {
		name    string
		upload  AudioUpload
		wantErr string
	}{
		{"mp3", AudioUpload{Data: []byte("x"), Filename: "a.MP3"}, ""},
		{"audio content type without extension", AudioUpload{Data: []byte("x"), Filename: "blob", ContentType: "audio/webm"}, ""},
		{"empty", AudioUpload{Filename: "a.mp3"}, MsgNoAudio},
		{"declared size over limit", AudioUpload{Data: []byte("x"), Size: 11, Filename: "a.mp3"}, MsgFileTooLarge},
		{"video", AudioUpload{Data: []byte("x"), Filename: "a.mp4", ContentType: "video/mp4"}, msgBadFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAudioUpload(tt.upload, 10)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if errors.MessageOf(err) != tt.wantErr {
				t.Fatalf("got %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func (s *GenerationServiceTestSuite) TestRetryWithSameTaskIDReportsFreshProgress() {
	gomock.InOrder(
		s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("", fmt.Errorf("connection reset")),
		s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(validScriptJSON, nil),
	)

	first, err := s.progress.ClaimTracker("retry")
	s.Require().NoError(err)
	_, err = s.service.ProcessScript(context.Background(), ScriptRequest{Memo: "朝活"}, first)
	s.Require().Error(err)
	s.Equal(StatusFailed, first.Snapshot().Status)

	second, err := s.progress.ClaimTracker("retry")
	s.Require().NoError(err)
	s.NotSame(first, second)

	sub := second.Subscribe()
	_, err = s.service.ProcessScript(context.Background(), ScriptRequest{Memo: "朝活"}, second)
	s.Require().NoError(err)

	updates := drain(sub)
	s.Require().Len(updates, 4)
	s.Equal(ProgressUpdate{TaskID: "retry", Stage: StageIdle, Progress: 0, Message: "待機中", Status: StatusRunning}, updates[0])
	s.Equal(StageGenerating, updates[1].Stage)
	s.Equal(0, updates[1].Progress)
	s.Equal(80, updates[2].Progress)
	s.Equal(StatusCompleted, updates[3].Status)
}
