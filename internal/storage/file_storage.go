// internal/storage/file_storage.go
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStorage keeps one JSON file per key under BaseDir.
type FileStorage struct {
	BaseDir string

	fileLocks sync.Map // path -> *sync.RWMutex
	cache     *readCache

	stop     chan struct{}
	stopOnce sync.Once
}

// NewFileStorage creates BaseDir if needed and starts the cache sweeper.
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	fs := &FileStorage{
		BaseDir: baseDir,
		cache:   newReadCache(100, 5*time.Minute),
		stop:    make(chan struct{}),
	}
	go fs.sweepCache(2 * time.Minute)

	return fs, nil
}

func (fs *FileStorage) getFileLock(fullPath string) *sync.RWMutex {
	value, _ := fs.fileLocks.LoadOrStore(fullPath, &sync.RWMutex{})
	return value.(*sync.RWMutex)
}

func (fs *FileStorage) pathFor(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return filepath.Join(fs.BaseDir, key+".json"), nil
}

// Get implements Store.
func (fs *FileStorage) Get(key string, dest any) (bool, error) {
	fullPath, err := fs.pathFor(key)
	if err != nil {
		return false, err
	}

	content, ok := fs.cache.get(fullPath)
	if !ok {
		content, err = fs.readThrough(fullPath)
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read %s: %w", key, err)
		}
	}

	if err := json.Unmarshal(content, dest); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// readThrough reads path and caches it under the file's read lock, so a
// concurrent Put cannot invalidate before the stale bytes are cached.
func (fs *FileStorage) readThrough(path string) ([]byte, error) {
	lock := fs.getFileLock(path)
	lock.RLock()
	defer lock.RUnlock()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fs.cache.put(path, content)
	return content, nil
}

// Put implements Store with a tmp-file-and-rename write.
func (fs *FileStorage) Put(key string, value any) error {
	fullPath, err := fs.pathFor(key)
	if err != nil {
		return err
	}

	content, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return fmt.Errorf("write temp file for %s: %w", key, err)
	}
	if err := os.Rename(tempPath, fullPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace %s: %w", key, err)
	}

	fs.cache.invalidate(fullPath)
	return nil
}

// Delete implements Store.
func (fs *FileStorage) Delete(key string) error {
	fullPath, err := fs.pathFor(key)
	if err != nil {
		return err
	}

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	fs.cache.invalidate(fullPath)
	return nil
}

// Close stops the cache sweeper.
func (fs *FileStorage) Close() error {
	fs.stopOnce.Do(func() { close(fs.stop) })
	return nil
}

func (fs *FileStorage) sweepCache(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-fs.stop:
			return
		case <-ticker.C:
			fs.cache.sweep()
		}
	}
}
