package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

type Config struct {
	LogLevel string      `json:"log_level"`
	Audio    AudioConfig `json:"audio"`
	Video    VideoConfig `json:"video"`
	Live     LiveConfig  `json:"live"`
}

type AudioConfig struct {
	InputDeviceID    string `json:"input_device_id"`
	InputSampleRate  int    `json:"input_sample_rate"`
	OutputSampleRate int    `json:"output_sample_rate"`
	ChunkSize        int    `json:"chunk_size"` // samples per capture buffer
}

type VideoConfig struct {
	FramesPerSecond int    `json:"frames_per_second"`
	JPEGQuality     int    `json:"jpeg_quality"`
	Facing          string `json:"facing"` // "user" or "environment"
}

type LiveConfig struct {
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`
	Voice    string `json:"voice"`
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	path := configPath()

	// Default config
	cfg := &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDeviceID:    "",
			InputSampleRate:  16000,
			OutputSampleRate: 24000,
			ChunkSize:        4096,
		},
		Video: VideoConfig{
			FramesPerSecond: 1,
			JPEGQuality:     40, // bandwidth over fidelity
			Facing:          "user",
		},
		Live: LiveConfig{
			Endpoint: "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent",
			Model:    "models/gemini-2.0-flash-live-001",
			Voice:    "Aoede",
		},
	}

	// Load existing config if it exists
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := configPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "souschef", "config.json")
}
