package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	log, err := New("debug")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug to be enabled")
	}

	log, err = New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if log.Core().Enabled(zapcore.DebugLevel) || !log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info as the default level")
	}

	if _, err := New("loud"); err == nil {
		t.Error("expected unknown level to fail")
	}
}

func TestNamedWithoutBase(t *testing.T) {
	if Named(nil, "svc.stock") == nil {
		t.Fatal("expected a no-op logger")
	}
}
