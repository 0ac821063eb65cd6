// internal/services/progress_service.go
package services

import (
	"sync"
	"time"

	"github.com/Corphon/StandfmAI/internal/errors"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ProgressUpdate is one snapshot pushed to subscribers.
type ProgressUpdate struct {
	TaskID   string `json:"taskId"`
	Stage    Stage  `json:"stage"`
	Progress int    `json:"progress"` // 0-100 within the current stage
	Message  string `json:"message"`
	Status   string `json:"status"`
}

// ProgressTracker follows one long-running request.
type ProgressTracker struct {
	TaskID     string
	Stage      Stage
	Progress   int
	Message    string
	Status     string
	StartTime  time.Time
	UpdateTime time.Time
	Done       chan struct{}

	subscribers map[chan ProgressUpdate]bool
	// claimed is set once a request drives the tracker.
	claimed bool
	mutex   sync.Mutex
}

// ProgressService owns every tracker.
type ProgressService struct {
	trackers map[string]*ProgressTracker
	mutex    sync.RWMutex
}

// NewProgressService creates an empty ProgressService.
func NewProgressService() *ProgressService {
	return &ProgressService{
		trackers: make(map[string]*ProgressTracker),
	}
}

// CreateTracker returns a tracker for taskID that clients can subscribe to
// before a request starts. A running tracker is returned as is; a finished
// one is replaced so the next run starts from idle.
func (s *ProgressService) CreateTracker(taskID string) *ProgressTracker {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if tracker, exists := s.trackers[taskID]; exists && tracker.running() {
		return tracker
	}

	tracker := newProgressTracker(taskID)
	s.trackers[taskID] = tracker
	return tracker
}

// ClaimTracker binds a request to taskID. It reuses a tracker created ahead
// of time, replaces a finished one, and refuses a task another request is
// still running.
func (s *ProgressService) ClaimTracker(taskID string) (*ProgressTracker, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	tracker, exists := s.trackers[taskID]
	if !exists || !tracker.running() {
		tracker = newProgressTracker(taskID)
		s.trackers[taskID] = tracker
	}

	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()
	if tracker.claimed {
		return nil, errors.NewConflictError("このタスクは処理中です", nil)
	}
	tracker.claimed = true
	return tracker, nil
}

func (t *ProgressTracker) running() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.Status == StatusRunning
}

func newProgressTracker(taskID string) *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		TaskID:      taskID,
		Stage:       StageIdle,
		Message:     "待機中",
		Status:      StatusRunning,
		StartTime:   now,
		UpdateTime:  now,
		Done:        make(chan struct{}),
		subscribers: make(map[chan ProgressUpdate]bool),
	}
}

// GetTracker looks up a tracker.
func (s *ProgressService) GetTracker(taskID string) (*ProgressTracker, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	tracker, exists := s.trackers[taskID]
	return tracker, exists
}

// CleanupCompletedTasks drops finished trackers, and trackers no request ever
// claimed, that have been idle longer than maxAge.
func (s *ProgressService) CleanupCompletedTasks(maxAge time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	now := time.Now()
	for id, tracker := range s.trackers {
		tracker.mutex.Lock()
		stale := tracker.Status != StatusRunning || !tracker.claimed
		old := now.Sub(tracker.UpdateTime) > maxAge
		tracker.mutex.Unlock()

		if stale && old {
			delete(s.trackers, id)
			removed++
		}
	}
	return removed
}

// snapshot builds an update. Caller holds mutex.
func (t *ProgressTracker) snapshot() ProgressUpdate {
	return ProgressUpdate{
		TaskID:   t.TaskID,
		Stage:    t.Stage,
		Progress: t.Progress,
		Message:  t.Message,
		Status:   t.Status,
	}
}

// broadcast sends without blocking; full subscribers miss the update. Caller holds mutex.
func (t *ProgressTracker) broadcast() {
	update := t.snapshot()
	for subscriber := range t.subscribers {
		select {
		case subscriber <- update:
		default:
		}
	}
}

// Snapshot returns the current state.
func (t *ProgressTracker) Snapshot() ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.snapshot()
}

// EnterStage moves to a new stage and resets progress to 0.
func (t *ProgressTracker) EnterStage(stage Stage, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.Status != StatusRunning {
		return
	}
	t.Stage = stage
	t.Progress = 0
	if message != "" {
		t.Message = message
	}
	t.UpdateTime = time.Now()
	t.broadcast()
}

// UpdateProgress raises progress within the current stage. Lower values are ignored.
func (t *ProgressTracker) UpdateProgress(progress int, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.Status != StatusRunning {
		return
	}
	if progress > 100 {
		progress = 100
	}
	if progress > t.Progress {
		t.Progress = progress
	}
	if message != "" {
		t.Message = message
	}
	t.UpdateTime = time.Now()
	t.broadcast()
}

// Complete marks the task done.
func (t *ProgressTracker) Complete(message string) {
	t.finish(StageDone, StatusCompleted, 100, message)
}

// Fail marks the task failed, keeping the progress it reached.
func (t *ProgressTracker) Fail(errorMsg string) {
	t.finish(StageError, StatusFailed, -1, errorMsg)
}

func (t *ProgressTracker) finish(stage Stage, status string, progress int, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.Status != StatusRunning {
		return
	}
	t.Stage = stage
	t.Status = status
	if progress >= 0 {
		t.Progress = progress
	}
	if message != "" {
		t.Message = message
	}
	t.UpdateTime = time.Now()
	t.broadcast()
	close(t.Done)
}

// Subscribe returns a buffered channel that first receives the current state.
func (t *ProgressTracker) Subscribe() chan ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	subscriber := make(chan ProgressUpdate, 10)
	t.subscribers[subscriber] = true
	subscriber <- t.snapshot()
	return subscriber
}

// Unsubscribe removes and closes subscriber.
func (t *ProgressTracker) Unsubscribe(subscriber chan ProgressUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.subscribers[subscriber] {
		delete(t.subscribers, subscriber)
		close(subscriber)
	}
}
