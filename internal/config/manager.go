package config

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/podiumhq/podium/internal/logging"
)

// Manager owns the live configuration and swaps it when the file changes.
type Manager struct {
	mu       sync.RWMutex
	path     string
	config   *Config
	watcher  *fsnotify.Watcher
	wg       sync.WaitGroup
	onReload func(*Config)
	log      zerolog.Logger
}

func NewManager() (*Manager, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerForPath(path)
}

func NewManagerForPath(path string) (*Manager, error) {
	log := logging.WithComponent("config")

	config, err := LoadFile(path)
	if err != nil {
		log.Error().Err(err).Msg("failed to load initial configuration")
		return nil, err
	}
	if err := config.Validate(); err != nil {
		log.Warn().Err(err).Msg("validation warning")
	}

	return &Manager{path: path, config: config, log: log}, nil
}

func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	configCopy := *m.config
	return &configCopy
}

// OnReload registers fn to run after every successful reload.
func (m *Manager) OnReload(fn func(*Config)) {
	m.mu.Lock()
	m.onReload = fn
	m.mu.Unlock()
}

func (m *Manager) StartWatching(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory: editors replace the file rather than write it.
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		watcher.Close()
		return err
	}
	m.watcher = watcher

	m.wg.Add(1)
	go m.watchLoop(ctx)

	m.log.Info().Str("path", m.path).Msg("watching for changes")
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context) {
	defer m.wg.Done()
	configFileName := filepath.Base(m.path)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				m.log.Debug().Str("file", event.Name).Msg("change detected")
				m.reloadConfig()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.log.Warn().Err(err).Msg("watcher error")

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) reloadConfig() {
	newConfig, err := LoadFile(m.path)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to reload config")
		return
	}
	if err := newConfig.Validate(); err != nil {
		m.log.Warn().Err(err).Msg("invalid config after reload, keeping previous")
		return
	}

	m.mu.Lock()
	m.config = newConfig
	fn := m.onReload
	m.mu.Unlock()

	m.log.Info().Msg("configuration reloaded")
	if fn != nil {
		fn(newConfig)
	}
}
