package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(WarnLevel), WithTextFormat(), WithWriter(&buf))

	l.Info("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("info logged below configured level: %q", buf.String())
	}

	l.Warn("should appear", F("count", 3))
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("warn not logged: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "count=3") {
		t.Fatalf("field missing from output: %q", buf.String())
	}
}

func TestWithAddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(DebugLevel), WithTextFormat(), WithWriter(&buf))
	l = l.With(F("component", "queue"))

	l.Debug("hello")
	if !strings.Contains(buf.String(), "component=queue") {
		t.Fatalf("persistent field missing: %q", buf.String())
	}
}

func TestErrFieldNilIsSafe(t *testing.T) {
	f := Err(nil)
	if f.Value != nil {
		t.Fatalf("want nil value for nil error, got %v", f.Value)
	}
}
