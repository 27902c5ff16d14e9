// Package prefs handles kiwi user preferences persistence.
// Preferences are stored in ~/.config/kiwi/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/kiwi/internal/todo"
)

// Prefs holds the view choices that survive restarts.
type Prefs struct {
	Theme         string `toml:"theme"`
	Filter        string `toml:"filter"`
	Sort          string `toml:"sort"`
	SortField     string `toml:"sort_field"`
	SortDirection string `toml:"sort_direction"`
}

const (
	defaultPrefsPath     = "~/.config/kiwi/prefs.toml"
	defaultTheme         = "Dracula"
	defaultSortField     = "createdTime"
	defaultSortDirection = "desc"
)

// Defaults returns the preferences used when nothing is saved.
func Defaults() Prefs {
	return Prefs{
		Theme:         defaultTheme,
		Filter:        string(todo.FilterAll),
		Sort:          string(todo.SortCreatedDate),
		SortField:     defaultSortField,
		SortDirection: defaultSortDirection,
	}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path. A missing file yields the
// defaults and no error. A file that cannot be read or parsed also yields the
// defaults, along with the error so the caller can log it; invalid values are
// replaced field by field without an error.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults(), err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return Defaults(), fmt.Errorf("read prefs: %w", err)
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Defaults(), fmt.Errorf("parse prefs %s: %w", resolved, err)
	}
	return p.normalized(), nil
}

// FilterOption returns the saved filter.
func (p Prefs) FilterOption() todo.Filter {
	f, _ := todo.ParseFilter(p.Filter)
	return f
}

// SortOption returns the saved view sort.
func (p Prefs) SortOption() todo.SortOption {
	o, _ := todo.ParseSortOption(p.Sort)
	return o
}

func (p Prefs) normalized() Prefs {
	d := Defaults()
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = d.Theme
	}
	if _, err := todo.ParseFilter(p.Filter); err != nil {
		p.Filter = d.Filter
	}
	if o, err := todo.ParseSortOption(p.Sort); err != nil {
		p.Sort = d.Sort
	} else {
		p.Sort = string(o)
	}
	switch p.SortField = strings.TrimSpace(p.SortField); p.SortField {
	case "title", "createdTime":
	default:
		p.SortField = d.SortField
	}
	switch p.SortDirection = strings.ToLower(strings.TrimSpace(p.SortDirection)); p.SortDirection {
	case "asc", "desc":
	default:
		p.SortDirection = d.SortDirection
	}
	return p
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
