package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("APPDATA", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Audio.InputSampleRate != 16000 || cfg.Audio.OutputSampleRate != 24000 {
		t.Fatalf("unexpected default sample rates: %+v", cfg.Audio)
	}
	if cfg.Video.Facing != "user" {
		t.Fatalf("expected default facing user, got %q", cfg.Video.Facing)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("APPDATA", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cfg.Video.Facing = "environment"
	cfg.Audio.InputDeviceID = "USB Mic"
	if err := cfg.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	again, err := Load()
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if again.Video.Facing != "environment" {
		t.Fatalf("facing not persisted, got %q", again.Video.Facing)
	}
	if again.Audio.InputDeviceID != "USB Mic" {
		t.Fatalf("device id not persisted, got %q", again.Audio.InputDeviceID)
	}
}
