// internal/services/script_library_service.go
package services

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Corphon/StandfmAI/internal/errors"
	"github.com/Corphon/StandfmAI/internal/models"
	"github.com/Corphon/StandfmAI/internal/storage"
	"github.com/Corphon/StandfmAI/internal/utils"
)

const saveFailedMessage = "保存に失敗しました"

// ScriptLibraryService keeps saved scripts, newest first.
type ScriptLibraryService struct {
	store  storage.Store
	logger *utils.Logger
	now    func() time.Time
	mu     sync.Mutex
}

func NewScriptLibraryService(store storage.Store) *ScriptLibraryService {
	return &ScriptLibraryService{store: store, logger: utils.GetLogger(), now: time.Now}
}

func (s *ScriptLibraryService) load() ([]models.SavedScript, error) {
	var scripts []models.SavedScript
	if _, err := s.store.Get(storage.KeyScripts, &scripts); err != nil {
		return nil, errors.NewPersistenceError("台本の読み込みに失敗しました", err)
	}
	return scripts, nil
}

// Save stores a script. ID and CreatedAt are assigned here.
func (s *ScriptLibraryService) Save(input models.SavedScript) (*models.SavedScript, error) {
	if strings.TrimSpace(input.ScriptText) == "" {
		return nil, errors.NewValidationError("保存する台本がありません", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	scripts, err := s.load()
	if err != nil {
		return nil, errors.NewPersistenceError(saveFailedMessage, err)
	}

	script := input
	script.ID = uuid.New().String()
	script.CreatedAt = s.now()
	script.Tone = models.ParseTone(string(input.Tone))
	script.Length = models.ParseScriptLength(string(input.Length))
	if script.SourcePostIDs == nil {
		script.SourcePostIDs = []string{}
	}

	if err := s.store.Put(storage.KeyScripts, append([]models.SavedScript{script}, scripts...)); err != nil {
		return nil, errors.NewPersistenceError(saveFailedMessage, err)
	}
	return &script, nil
}

// List returns saved scripts. A load failure is logged and yields an empty list.
func (s *ScriptLibraryService) List() []models.SavedScript {
	s.mu.Lock()
	defer s.mu.Unlock()

	scripts, err := s.load()
	if err != nil {
		s.logger.Warn("Failed to load scripts", map[string]interface{}{"error": err.Error()})
		return []models.SavedScript{}
	}
	if scripts == nil {
		scripts = []models.SavedScript{}
	}
	return scripts
}

func (s *ScriptLibraryService) Get(id string) (*models.SavedScript, error) {
	for _, sc := range s.List() {
		if sc.ID == id {
			script := sc
			return &script, nil
		}
	}
	return nil, errors.NewNotFoundError("台本が見つかりません", nil)
}

func (s *ScriptLibraryService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scripts, err := s.load()
	if err != nil {
		return err
	}

	kept := make([]models.SavedScript, 0, len(scripts))
	for _, sc := range scripts {
		if sc.ID != id {
			kept = append(kept, sc)
		}
	}
	if len(kept) == len(scripts) {
		return errors.NewNotFoundError("台本が見つかりません", nil)
	}
	if err := s.store.Put(storage.KeyScripts, kept); err != nil {
		return errors.NewPersistenceError("台本の削除に失敗しました", err)
	}
	return nil
}
