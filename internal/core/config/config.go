package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yml"
	AppDirName     = "ytdl"
)

// ConfigDir returns the standard config directory for ytdl.
// Windows: %APPDATA%\ytdl\
// macOS/Linux: ~/.config/ytdl/
func ConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, AppDirName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppDirName), nil
}

// ConfigPath returns the path to the config file.
// e.g., ~/.config/ytdl/config.yml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

type Config struct {
	// Default output directory
	OutputDir string `yaml:"output_dir,omitempty"`

	// Audio selection preference: "fast" (smallest stream) or "best"
	AudioQuality string `yaml:"audio_quality,omitempty"`

	// MP3 conversion quality, lame VBR 0 (best) to 9 (smallest)
	MP3Quality int `yaml:"mp3_quality"`

	// Extraction client order override, e.g. [ios, web]. Empty keeps the
	// built-in order.
	ClientPriority []string `yaml:"client_priority,omitempty"`
}

// BestAudio reports whether audio selection should rank by fidelity.
func (c *Config) BestAudio() bool {
	return strings.EqualFold(c.AudioQuality, "best")
}

// DefaultDownloadDir returns the default download directory.
// macOS/Windows: ~/Downloads/ytdl, Linux: ~/downloads
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./downloads"
	}

	switch runtime.GOOS {
	case "darwin", "windows":
		return filepath.Join(home, "Downloads", "ytdl")
	default:
		return filepath.Join(home, "downloads")
	}
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		OutputDir:    DefaultDownloadDir(),
		AudioQuality: "fast",
		MP3Quality:   2,
	}
}

// Exists checks if config file exists
func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the config from ~/.config/ytdl/config.yml
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// Expand tilde in OutputDir
	cfg.OutputDir = expandPath(cfg.OutputDir)

	return cfg, nil
}

// expandPath expands the tilde (~) in the path to the user's home directory.
// It handles both forward and backward slashes so config files written on
// one platform keep working on another.
func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		// Only expand if it's explicitly "~", "~/", or "~\"
		if len(path) == 1 || path[1] == '/' || path[1] == '\\' {
			home, err := os.UserHomeDir()
			if err == nil {
				subPath := path[1:]
				if len(subPath) > 0 && (subPath[0] == '/' || subPath[0] == '\\') {
					subPath = subPath[1:]
				}
				return filepath.Join(home, subPath)
			}
		}
	}

	return path
}

// Save writes the config to ~/.config/ytdl/config.yml
func Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	configPath, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	header := "# ytdl configuration file\n# Run 'ytdl init' to regenerate with defaults\n\n"
	content := header + string(data)

	return os.WriteFile(configPath, []byte(content), 0644)
}

// SavePath returns the path where config will be saved
func SavePath() string {
	if path, err := ConfigPath(); err == nil {
		return path
	}
	return "config.yml"
}

// Init creates a new config.yml with default values
func Init() error {
	if Exists() {
		path, _ := ConfigPath()
		return fmt.Errorf("%s already exists", path)
	}
	return Save(DefaultConfig())
}

// LoadOrDefault loads config if it exists, otherwise returns defaults
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = DefaultConfig()
	}
	return cfg
}
