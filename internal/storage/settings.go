package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"

	"brewtemp/internal/config"
	"brewtemp/internal/models"

	"github.com/spf13/afero"
)

// ErrNotMounted is returned when the filesystem holding the settings file is
// not available.
var ErrNotMounted = errors.New("settings filesystem not mounted")

// SettingsStore reads and writes the settings JSON on a mounted filesystem.
type SettingsStore struct {
	fs         afero.Fs
	mountPoint string
	path       string
}

// NewSettingsStore serves path relative to mountPoint on fs. path is the
// device's absolute config file path, e.g. "/brewtemp.json".
func NewSettingsStore(fs afero.Fs, mountPoint, path string) *SettingsStore {
	return &SettingsStore{fs: fs, mountPoint: mountPoint, path: path}
}

func (s *SettingsStore) fullPath() string {
	return path.Join(s.mountPoint, path.Clean("/"+s.path))
}

func (s *SettingsStore) mounted() bool {
	ok, err := afero.DirExists(s.fs, s.mountPoint)
	return err == nil && ok
}

// Load decodes the settings file. The returned FileState is meaningful even
// when err is non-nil.
func (s *SettingsStore) Load() (models.Settings, config.FileState, error) {
	if !s.mounted() {
		return models.Settings{}, config.FSNotMounted, ErrNotMounted
	}

	b, err := afero.ReadFile(s.fs, s.fullPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Settings{}, config.FileNotFound, nil
		}
		return models.Settings{}, config.FileNotFound, fmt.Errorf("read settings %q: %w", s.path, err)
	}
	if len(b) == 0 {
		return models.Settings{}, config.FileEmpty, nil
	}

	var out models.Settings
	if err := json.Unmarshal(b, &out); err != nil {
		return models.Settings{}, config.FileOK, fmt.Errorf("decode settings %q: %w", s.path, err)
	}
	return out, config.FileOK, nil
}

// Save replaces the settings file through a temp file and rename.
func (s *SettingsStore) Save(v models.Settings) error {
	if !s.mounted() {
		return ErrNotMounted
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	full := s.fullPath()
	if err := s.fs.MkdirAll(path.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := full + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, b, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := s.fs.Rename(tmp, full); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
