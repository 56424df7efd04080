package theme

import (
	"errors"
	"io/fs"
	"net/http"
)

var ErrTemplateUnavailable = errors.New("template assets unavailable")

// FileSystem serves static assets of the active template. Files the active
// template does not ship are looked up in the fallback template, so a
// template that only overrides block markup keeps the base stylesheet.
type FileSystem struct {
	manager  *Manager
	fallback string
}

func NewFileSystem(manager *Manager, fallback string) http.FileSystem {
	return &FileSystem{manager: manager, fallback: fallback}
}

func (f *FileSystem) Open(name string) (http.File, error) {
	if f.manager == nil {
		return nil, ErrTemplateUnavailable
	}

	var dirs []string
	if active := f.manager.Active(); active != nil {
		dirs = append(dirs, active.StaticDir)
	}
	if base, ok := f.manager.Resolve(f.fallback); ok && (len(dirs) == 0 || dirs[0] != base.StaticDir) {
		dirs = append(dirs, base.StaticDir)
	}
	if len(dirs) == 0 {
		return nil, ErrTemplateUnavailable
	}

	var lastErr error
	for _, dir := range dirs {
		file, err := http.Dir(dir).Open(name)
		if err == nil {
			return file, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
