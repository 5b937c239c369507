package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestInitialize(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, &buf)

	if Verbosity() != LevelInfo {
		t.Errorf("expected verbosity %d, got %d", LevelInfo, Verbosity())
	}
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelTrace, &buf)

	Info("test info", "key", "value")
	Debug("test debug", "key", "value")
	Trace("test trace", "key", "value")
	Warn("test warn", "key", "value")
	Error("test error", "key", "value")

	out := buf.String()
	for _, want := range []string{"level=INFO", "level=DEBUG", "level=TRACE", "level=WARN", "level=ERROR"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestQuietSuppressesInfo(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelQuiet, &buf)

	Info("hidden")
	Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output at quiet level, got %q", buf.String())
	}

	Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("expected warnings at quiet level")
	}
}

func TestWithJSON(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, &buf, WithJSON())

	Info("fetched issues", "count", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "fetched issues" || rec["count"] != float64(3) {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestVerbosityLevels(t *testing.T) {
	tests := []struct {
		level   int
		isInfo  bool
		isDebug bool
		isTrace bool
	}{
		{LevelQuiet, false, false, false},
		{LevelInfo, true, false, false},
		{LevelDebug, true, true, false},
		{LevelTrace, true, true, true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		Initialize(tt.level, &buf)

		if IsInfo() != tt.isInfo || IsDebug() != tt.isDebug || IsTrace() != tt.isTrace {
			t.Errorf("level %d: IsInfo=%v IsDebug=%v IsTrace=%v", tt.level, IsInfo(), IsDebug(), IsTrace())
		}
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, &buf)

	Progress("Fetching %d/%d", 1, 2)
	ProgressDone()
	if !strings.Contains(buf.String(), "\rFetching 1/2 done\n") {
		t.Errorf("unexpected progress output: %q", buf.String())
	}

	buf.Reset()
	Progress("Classifying")
	ProgressClear()
	if !strings.HasSuffix(buf.String(), "\r\033[K") {
		t.Errorf("expected line clear, got %q", buf.String())
	}
}

func TestProgressBreaksForLogLine(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, &buf)

	Progress("Fetching")
	Info("cache hit")
	if !strings.HasPrefix(buf.String(), "\rFetching\n") {
		t.Errorf("log line should start on a fresh line: %q", buf.String())
	}
}

func TestProgressCountThrottles(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, &buf)

	for i := 0; i <= 1000; i++ {
		ProgressCount("issues", i, 1000)
	}

	writes := strings.Count(buf.String(), "\r")
	// One write per throttle bucket plus the final line.
	if writes > 100/5+2 {
		t.Errorf("expected throttled progress, got %d writes", writes)
	}
	if !strings.HasSuffix(buf.String(), "issues 1000/1000 (100%) done\n") {
		t.Errorf("expected final progress line, got %q", buf.String())
	}
}

func TestSetOutput(t *testing.T) {
	var buf1, buf2 bytes.Buffer

	Initialize(LevelInfo, &buf1)
	Info("message 1")

	prev := SetOutput(&buf2)
	Info("message 2")

	if prev != &buf1 {
		t.Error("SetOutput should return the previous writer")
	}
	if !strings.Contains(buf1.String(), "message 1") || strings.Contains(buf1.String(), "message 2") {
		t.Errorf("unexpected first buffer: %q", buf1.String())
	}
	if !strings.Contains(buf2.String(), "message 2") {
		t.Errorf("unexpected second buffer: %q", buf2.String())
	}
}
