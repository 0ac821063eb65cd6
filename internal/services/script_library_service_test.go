package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StandfmAI/internal/errors"
	"github.com/Corphon/StandfmAI/internal/models"
)

func TestScriptLibraryLifecycle(t *testing.T) {
	svc := NewScriptLibraryService(newFileStore(t))

	first, err := svc.Save(models.SavedScript{
		MemoText:   "朝活メモ",
		ScriptText: "【タイトル】朝活",
		Title:      "朝活",
		Tone:       "POLITE",
		Length:     "forever",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, models.TonePolite, first.Tone)
	assert.Equal(t, models.LengthStandard, first.Length)
	assert.Equal(t, []string{}, first.SourcePostIDs)

	second, err := svc.Save(models.SavedScript{ScriptText: "二本目", SourcePostIDs: []string{"p1"}})
	require.NoError(t, err)

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	got, err := svc.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "朝活メモ", got.MemoText)

	require.NoError(t, svc.Delete(first.ID))
	assert.True(t, errors.IsNotFoundError(svc.Delete(first.ID)))
	assert.Len(t, svc.List(), 1)
}

func TestScriptLibraryRejectsEmptyScript(t *testing.T) {
	store := &brokenStore{}
	svc := NewScriptLibraryService(store)

	_, err := svc.Save(models.SavedScript{ScriptText: " \n "})
	assert.True(t, errors.IsValidationError(err))
	assert.Zero(t, store.puts)
}

func TestScriptLibraryWriteFailure(t *testing.T) {
	svc := NewScriptLibraryService(&brokenStore{putErr: fmt.Errorf("read only")})

	_, err := svc.Save(models.SavedScript{ScriptText: "x"})
	assert.True(t, errors.IsPersistenceError(err))
	assert.Equal(t, "保存に失敗しました", errors.MessageOf(err))
}
