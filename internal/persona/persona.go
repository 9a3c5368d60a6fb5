// Package persona supplies the reply persona/style prompt. Prompts are
// configuration, never code: either an inline string or a file that is
// re-read when it changes on disk.
package persona

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

type Loader struct {
	file   string
	logger *slog.Logger

	mu     sync.RWMutex
	prompt string
}

// New builds a loader from an inline prompt or a prompt file. When both
// are set the file wins. A file loader re-reads on Watch events.
func New(inline, file string, logger *slog.Logger) (*Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loader := &Loader{
		file:   strings.TrimSpace(file),
		logger: logger,
		prompt: strings.TrimSpace(inline),
	}
	if loader.file != "" {
		if err := loader.reload(); err != nil {
			return nil, err
		}
	}
	return loader, nil
}

func (l *Loader) Prompt() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.prompt
}

// Watch blocks until ctx is done, reloading the prompt file whenever it
// is written or recreated. It is a no-op for inline prompts.
func (l *Loader) Watch(ctx context.Context) error {
	if l.file == "" {
		<-ctx.Done()
		return nil
	}
	fileWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fileWatcher.Close()

	// Watch the directory, not the file: editors rename/replace on save.
	if err := fileWatcher.Add(filepath.Dir(l.file)); err != nil {
		return fmt.Errorf("watch prompt directory: %w", err)
	}
	l.logger.Info("persona prompt watcher started", "file", l.file)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("persona prompt watcher stopped")
			return nil
		case event := <-fileWatcher.Events:
			if filepath.Clean(event.Name) != filepath.Clean(l.file) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := l.reload(); err != nil {
				l.logger.Error("persona prompt reload failed", "error", err)
				continue
			}
			l.logger.Info("persona prompt reloaded", "file", l.file)
		case err := <-fileWatcher.Errors:
			if err != nil {
				l.logger.Error("persona prompt watcher error", "error", err)
			}
		}
	}
}

func (l *Loader) reload() error {
	content, err := os.ReadFile(l.file)
	if err != nil {
		return fmt.Errorf("read persona prompt file: %w", err)
	}
	prompt := strings.TrimSpace(string(content))
	if prompt == "" {
		return fmt.Errorf("persona prompt file %s is empty", l.file)
	}
	l.mu.Lock()
	l.prompt = prompt
	l.mu.Unlock()
	return nil
}
