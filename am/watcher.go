package am

import (
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/taxa/errors"
)

// DefaultDebounce collapses bursts of editor writes into one reload
const DefaultDebounce = 500 * time.Millisecond

// ownWriteWindow covers every event a single os.WriteFile produces
const ownWriteWindow = time.Second

// ConfigWatcher watches config files for changes and triggers reload callbacks
type ConfigWatcher struct {
	paths          []string
	watcher        *fsnotify.Watcher
	logger         *zap.SugaredLogger
	callbacks      []ReloadCallback
	mu             sync.RWMutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	ownWriteUntil  time.Time
	ownWriteMutex  sync.Mutex
}

// ReloadCallback is called with the freshly loaded config
type ReloadCallback func(*Config) error

var (
	globalWatcher   *ConfigWatcher
	globalWatcherMu sync.Mutex

	backupPattern = regexp.MustCompile(`\.back[0-9]+$`)
)

// NewConfigWatcher watches the directories holding paths. Directories are
// watched instead of files so that editors replacing the file are seen.
func NewConfigWatcher(logger *zap.SugaredLogger, paths ...string) (*ConfigWatcher, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if len(paths) == 0 {
		return nil, errors.New("no config files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", dir)
		}
		dirs[dir] = true
	}

	return &ConfigWatcher{
		paths:          paths,
		watcher:        watcher,
		logger:         logger,
		debouncePeriod: DefaultDebounce,
	}, nil
}

// WatchCascade watches every existing file of the config cascade plus the
// user config, which 'taxa taxonomy set' may create later
func WatchCascade(logger *zap.SugaredLogger) (*ConfigWatcher, error) {
	user := UserConfigPath()
	var paths []string
	for _, f := range Sources() {
		if f.Exists && f.Path != user {
			paths = append(paths, f.Path)
		}
	}
	if user != "" {
		if err := os.MkdirAll(filepath.Dir(user), DefaultDirPermissions); err != nil {
			return nil, errors.Wrap(err, "failed to create .taxa directory")
		}
		paths = append(paths, user)
	}
	return NewConfigWatcher(logger, paths...)
}

// SetDebounce overrides the debounce period. Call before Start.
func (cw *ConfigWatcher) SetDebounce(d time.Duration) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.debouncePeriod = d
}

// OnReload registers a callback to be called when config is reloaded
func (cw *ConfigWatcher) OnReload(callback ReloadCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// MarkOwnWrite suppresses reloads for writes made in the next ownWriteWindow
func (cw *ConfigWatcher) MarkOwnWrite() {
	cw.ownWriteMutex.Lock()
	defer cw.ownWriteMutex.Unlock()
	cw.ownWriteUntil = time.Now().Add(ownWriteWindow)
}

func (cw *ConfigWatcher) checkOwnWrite() bool {
	cw.ownWriteMutex.Lock()
	defer cw.ownWriteMutex.Unlock()
	return time.Now().Before(cw.ownWriteUntil)
}

// Start begins watching for config file changes
func (cw *ConfigWatcher) Start() {
	go cw.watchLoop()
}

func (cw *ConfigWatcher) watches(name string) bool {
	for _, p := range cw.paths {
		if filepath.Clean(p) == filepath.Clean(name) {
			return true
		}
	}
	return false
}

func (cw *ConfigWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if isBackupFile(event.Name) || !cw.watches(event.Name) {
				continue
			}
			if cw.checkOwnWrite() {
				cw.logger.Debugw("Config watcher ignoring own write", "file", event.Name)
				continue
			}

			cw.logger.Infow("Config watcher detected change",
				"file", event.Name,
				"op", event.Op.String())
			cw.scheduleReload()

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warnw("Config watcher error", "error", err)
		}
	}
}

// scheduleReload debounces rapid file changes and triggers reload
func (cw *ConfigWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(cw.debouncePeriod, func() {
		if err := cw.reload(); err != nil {
			cw.logger.Errorw("Config reload failed", "error", err)
		}
	})
}

// reload reloads the configuration and calls all callbacks
func (cw *ConfigWatcher) reload() error {
	Reset()

	newConfig, err := Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := newConfig.Validate(); err != nil {
		return errors.Wrap(err, "reloaded config is invalid")
	}

	cw.logger.Infow("Config reloaded successfully", "paths", cw.paths)

	cw.mu.RLock()
	callbacks := make([]ReloadCallback, len(cw.callbacks))
	copy(callbacks, cw.callbacks)
	cw.mu.RUnlock()

	for _, callback := range callbacks {
		// One failing callback does not stop the others
		if err := callback(newConfig); err != nil {
			cw.logger.Warnw("Config reload callback error", "error", err)
		}
	}
	return nil
}

// Stop stops watching for config changes
func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.mu.Unlock()
	return cw.watcher.Close()
}

func isBackupFile(path string) bool {
	return backupPattern.MatchString(filepath.Base(path))
}

// SetGlobalWatcher registers the watcher that persist calls mark as their own writes
func SetGlobalWatcher(watcher *ConfigWatcher) {
	globalWatcherMu.Lock()
	defer globalWatcherMu.Unlock()
	globalWatcher = watcher
}
