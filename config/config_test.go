package config

import (
	"testing"
)

func TestLoadDefaultConfig(t *testing.T) {
	opts, err := GetConfig()
	if err != nil {
		t.Errorf("Error loading config: %s", err)
	}

	t.Logf(`Config
		DeviceRoot: %s
		DatabaseName: %s
		LogLevel: %s
		MaxFilenameLen: %d
		HashAlgorithm: %s
		`, opts.DeviceRoot, opts.DatabaseName, opts.LogLevel, opts.MaxFilenameLen, opts.HashAlgorithm)

	if opts.DatabaseName != defaultDatabaseName {
		t.Errorf("DatabaseName not set")
	}
	if opts.MaxFilenameLen != defaultMaxFilenameLen {
		t.Errorf("MaxFilenameLen not set")
	}
}

func TestLoadConfigFile(t *testing.T) {
	GetDefaultOptions()
	opts, err := ParseFile("config_test.toml")
	if err != nil {
		t.Fatalf("Error loading config: %s", err)
	}
	if opts.LogFile != "test.log" {
		t.Errorf("LogFile not set")
	}
	if opts.LogLevel != "debug" {
		t.Errorf("LogLevel not set")
	}
	if opts.DeviceRoot != "/mnt/anx" {
		t.Errorf("DeviceRoot not set")
	}
	if opts.MaxFilenameLen != 60 {
		t.Errorf("MaxFilenameLen not set")
	}
	if opts.HashAlgorithm != "sha256" {
		t.Errorf("HashAlgorithm not set")
	}
}

func TestCheckSupportedFormat(t *testing.T) {
	GetDefaultOptions()
	for _, format := range []string{"epub", ".epub", "EPUB", "pdf", "txt"} {
		if !CheckSupportedFormat(format) {
			t.Errorf("Expected %s to be supported", format)
		}
	}
	for _, format := range []string{"exe", ".cbz", ""} {
		if CheckSupportedFormat(format) {
			t.Errorf("Expected %s to be unsupported", format)
		}
	}
}
