package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{" warn ", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"fatal", FATAL},
		{"bogus", INFO},
		{"", INFO},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("warn", &buf)

	l.Debug("hidden debug")
	l.Infof("hidden %s", "info")
	l.Warnf("shown %d", 1)
	l.Error("shown error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains filtered messages:\n%s", out)
	}
	if !strings.Contains(out, "[WARN ]") || !strings.Contains(out, "shown 1") {
		t.Errorf("missing warning in output:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR]") {
		t.Errorf("missing error in output:\n%s", out)
	}
	if !strings.Contains(out, "logger_test.go:") {
		t.Errorf("caller file not reported:\n%s", out)
	}
}

func TestNamedSharesSink(t *testing.T) {
	var buf bytes.Buffer
	root := NewWriterLogger("debug", &buf)
	child := root.Named("presenter").Named("device")

	child.Info("started")
	if !strings.Contains(buf.String(), "presenter.device: started") {
		t.Errorf("component prefix missing:\n%s", buf.String())
	}

	root.SetLevel("error")
	buf.Reset()
	child.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("child ignored parent level change: %q", buf.String())
	}
}

func TestFatalExits(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("info", &buf)
	code := -1
	l.sink.exit = func(c int) { code = c }

	l.Fatalf("boom %d", 7)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "boom 7") {
		t.Errorf("fatal message missing:\n%s", buf.String())
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "render.log")
	l, err := NewFileLogger("debug", path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	l.Debugf("frame %d", 3)
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "frame 3") {
		t.Errorf("log file content = %q", data)
	}
	if strings.Contains(string(data), "\033[") {
		t.Errorf("file output contains color codes: %q", data)
	}
}

func TestConcurrentLogging(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("info", &buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Named("worker").Infof("%d-%d", n, j)
			}
		}(i)
	}
	wg.Wait()

	if lines := strings.Count(buf.String(), "\n"); lines != 400 {
		t.Errorf("got %d lines, want 400", lines)
	}
}
