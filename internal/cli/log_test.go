package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLoggerFromContext(t *testing.T) {
	if l := loggerFromContext(context.Background()); l != log.Default() {
		t.Errorf("loggerFromContext(empty) = %p, expected log.Default()", l)
	}

	var buf bytes.Buffer
	l := newLogger(&buf, log.DebugLevel)
	if got := loggerFromContext(withLogger(context.Background(), l)); got != l {
		t.Errorf("loggerFromContext = %p, expected %p", got, l)
	}
	l.Debug("hello")
	if !bytes.Contains(buf.Bytes(), []byte("hello")) {
		t.Errorf("debug message not written: %q", buf.String())
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message written at info level: %q", buf.String())
	}
}
