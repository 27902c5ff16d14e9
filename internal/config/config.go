package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything kiwi needs to reach the record store.
type Config struct {
	BaseURL        string        `toml:"base_url" validate:"required"`
	BaseID         string        `toml:"base_id" validate:"required"`
	Table          string        `toml:"table" validate:"required"`
	Token          string        `toml:"token" validate:"required"`
	PageSize       int           `toml:"page_size" validate:"gte=0,lte=100"`
	PerPage        int           `toml:"per_page" validate:"gte=1,lte=500"`
	SearchDebounce time.Duration `toml:"search_debounce" validate:"gte=0"`
	RefreshEvery   time.Duration `toml:"refresh_every" validate:"gte=0"`
	OptimisticAdd  bool          `toml:"optimistic_add"`
	LogFile        string        `toml:"log_file"`
	Debug          bool          `toml:"debug"`
}

const (
	defaultConfigPath     = "~/.config/kiwi/config.toml"
	defaultLogFile        = "~/.local/share/kiwi/kiwi.log"
	defaultBaseURL        = "https://api.airtable.com/v0"
	defaultTable          = "Todos"
	defaultPerPage        = 15
	defaultSearchDebounce = 500 * time.Millisecond
)

// Environment variables that override file values.
const (
	EnvBaseURL = "KIWI_BASE_URL"
	EnvBaseID  = "KIWI_BASE_ID"
	EnvTable   = "KIWI_TABLE"
	EnvToken   = "KIWI_TOKEN"
	EnvDebug   = "KIWI_DEBUG"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BaseURL:        defaultBaseURL,
		Table:          defaultTable,
		PerPage:        defaultPerPage,
		SearchDebounce: defaultSearchDebounce,
		LogFile:        mustExpand(defaultLogFile),
	}
}

// Load locates and parses the config file, falling back to defaults when it
// is missing, then applies environment overrides. It does not validate; call
// Validate before talking to the store.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		BaseURL        string `toml:"base_url"`
		BaseID         string `toml:"base_id"`
		Table          string `toml:"table"`
		Token          string `toml:"token"`
		PageSize       int    `toml:"page_size"`
		PerPage        int    `toml:"per_page"`
		SearchDebounce string `toml:"search_debounce"`
		RefreshEvery   string `toml:"refresh_every"`
		OptimisticAdd  bool   `toml:"optimistic_add"`
		LogFile        string `toml:"log_file"`
		Debug          bool   `toml:"debug"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	cfg.BaseID = strings.TrimSpace(raw.BaseID)
	if v := strings.TrimSpace(raw.Table); v != "" {
		cfg.Table = v
	}
	cfg.Token = strings.TrimSpace(raw.Token)
	cfg.PageSize = raw.PageSize
	if raw.PerPage > 0 {
		cfg.PerPage = raw.PerPage
	}
	if cfg.SearchDebounce, err = parseDuration(raw.SearchDebounce, defaultSearchDebounce); err != nil {
		return Config{}, fmt.Errorf("parse config: search_debounce: %w", err)
	}
	if cfg.RefreshEvery, err = parseDuration(raw.RefreshEvery, 0); err != nil {
		return Config{}, fmt.Errorf("parse config: refresh_every: %w", err)
	}
	cfg.OptimisticAdd = raw.OptimisticAdd
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	cfg.Debug = raw.Debug

	applyEnv(&cfg)
	return cfg, nil
}

// Validate reports missing or out-of-range settings, naming them by their
// config file keys.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBaseID)); v != "" {
		cfg.BaseID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTable)); v != "" {
		cfg.Table = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		cfg.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDebug)); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = debug
		}
	}
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	return time.ParseDuration(trimmed)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
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
