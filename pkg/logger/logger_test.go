package logger

import "testing"

func TestNewInstallsGlobals(t *testing.T) {
	old := SetServiceName("pattern_bot_test")
	defer SetServiceName(old)

	l, err := New("debug")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if InfoLogger != l || FatalLogger != l {
		t.Fatalf("expected globals to point to the new logger")
	}
	if !l.Core().Enabled(-1) {
		t.Errorf("expected debug level to be enabled")
	}

	// не должно паниковать после инициализации
	Info("hello %s", "world")
	Warn("warn %d", 1)
}

func TestNewFallsBackToInfo(t *testing.T) {
	l, err := New("not-a-level")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Core().Enabled(-1) {
		t.Errorf("debug must be disabled for unknown level")
	}
	if !l.Core().Enabled(0) {
		t.Errorf("info must be enabled for unknown level")
	}
}
