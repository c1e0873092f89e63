package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	fn()
	return buf.String()
}

func TestWarnFormatsKeyValues(t *testing.T) {
	SetLevel(LevelInfo)
	out := capture(t, func() {
		Warn("event missing tag", "uid", "untiscal-3@untiscal")
	})
	if !strings.Contains(out, "[WARN] event missing tag uid=untiscal-3@untiscal") {
		t.Errorf("output = %q", out)
	}
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	SetLevel(LevelInfo)
	out := capture(t, func() {
		Debug("noise")
	})
	if out != "" {
		t.Errorf("debug line leaked: %q", out)
	}
}

func TestWarnSuppressedAtError(t *testing.T) {
	SetLevel(LevelError)
	defer SetLevel(LevelInfo)
	out := capture(t, func() {
		Warn("skipped")
	})
	if out != "" {
		t.Errorf("warn line leaked: %q", out)
	}
}
