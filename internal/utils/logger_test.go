package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"darkweb/internal/config"

	"go.uber.org/zap"
)

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	if err := InitLogger(&config.Config{LogLevel: "info", LogPath: path}); err != nil {
		t.Fatalf("InitLogger: %v", err)
	}
	defer func() {
		Logger = zap.NewNop()
	}()

	Logger.Info("hello")
	Logger.Debug("hidden")
	_ = Logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("Expected info line in log file, got %s", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Errorf("debug line should be filtered at info level")
	}
}
