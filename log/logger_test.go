package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anxkit/anx-sync/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Test the log rotation, the log file should be rotated when it reaches the maximum size
func TestLogRotation(t *testing.T) {
	dir := t.TempDir()

	filename := filepath.Join(dir, "anx-sync.log")

	rotationLog := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    1, // megabytes
		MaxBackups: 3,
		MaxAge:     1, // days
	}
	defer rotationLog.Close()
	logger := newZap(rotationLog)
	defer logger.Sync()
	oneMegabyte := 1024 * 1024
	// Write 1MiB of data
	// should create a new file
	rotationLog.Write(make([]byte, oneMegabyte))
	logger.Info("This log should be in a new file")
	// Get file size
	fileInfo, err := os.Stat(filename)
	if err != nil {
		t.Fatal(err)
	}
	if fileInfo.Size() > int64(oneMegabyte) {
		t.Fatalf("File size %d is greater than expected %d", fileInfo.Size(), oneMegabyte)
	}
}

// The log file location and rotation limits come from the options, not from
// compiled-in values
func TestNewLoggerUsesOptions(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "custom.log")

	opts := config.GetDefaultOptions()
	opts.LogFile = filename
	opts.LogFileMaxSize = 1
	opts.LogFileMaxBackups = 1
	opts.LogFileMaxAge = 1

	logger := NewLogger(opts)
	logger.Info("This log should land in the configured file")
	logger.Sync()

	if _, err := os.Stat(filename); err != nil {
		t.Fatalf("Expected log file at configured path: %v", err)
	}
}
