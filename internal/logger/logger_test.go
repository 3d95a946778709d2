package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}

	realTmpDir, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("resolve tmp dir symlink failed: %v", err)
	}
	realGot, err := filepath.EvalSymlinks(filepath.Dir(got))
	if err != nil {
		t.Fatalf("resolve got dir symlink failed: %v", err)
	}
	expectedDir := filepath.Join(realTmpDir, defaultLogDirName)
	if realGot != expectedDir {
		t.Fatalf("unexpected log dir: got=%s expected=%s", realGot, expectedDir)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Fatalf("expected log dir to be created: %v", err)
	}
}

func TestNewReleaseWritesToConfiguredFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "release.log",
	}
	log := New("release", cfg)
	log.Info("release-log-test")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	if !strings.Contains(string(content), "release-log-test") {
		t.Fatalf("expected log content to contain message, got=%s", string(content))
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "debug.log",
	}
	log := New("debug", cfg)
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestNamedAttachesComponent(t *testing.T) {
	tmpDir := t.TempDir()
	L = New("release", Options{Dir: tmpDir, Filename: "named.log"})
	t.Cleanup(func() { L = nil })

	Named("worker").Infow("named_log_test", "order_id", 42)
	_ = L.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "named.log"))
	if err != nil {
		t.Fatalf("read named log failed: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, `"component":"worker"`) || !strings.Contains(text, `"order_id":42`) {
		t.Fatalf("expected component and kv fields, got=%s", text)
	}
}

func TestLevelAndServiceField(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "level.log", Level: "warn", Service: "hmdp"})
	log.Info("info-should-be-dropped")
	log.Warn("warn-kept")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "level.log"))
	if err != nil {
		t.Fatalf("read level log failed: %v", err)
	}
	text := string(content)
	if strings.Contains(text, "info-should-be-dropped") {
		t.Fatalf("info entry should be filtered at warn level, got=%s", text)
	}
	if !strings.Contains(text, "warn-kept") || !strings.Contains(text, `"service":"hmdp"`) {
		t.Fatalf("expected warn entry with service field, got=%s", text)
	}
}

func TestResolveLevelFallsBackOnMode(t *testing.T) {
	if got := resolveLevel("", true).Level(); got != zapcore.DebugLevel {
		t.Fatalf("debug mode should default to debug level, got %s", got)
	}
	if got := resolveLevel("bogus", false).Level(); got != zapcore.InfoLevel {
		t.Fatalf("invalid level should fall back to info, got %s", got)
	}
	if got := resolveLevel("error", true).Level(); got != zapcore.ErrorLevel {
		t.Fatalf("explicit level should win, got %s", got)
	}
}
