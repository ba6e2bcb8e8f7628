package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestStandardLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewStandard(log.New(&buf, "", 0), false)

	l.Debug("hidden %d", 1)
	l.Info("hello %s", "world")
	l.Warning("careful")
	l.Error("broken: %v", "x")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line must be gated by verbose: %q", out)
	}
	for _, want := range []string{"hello world", "careful", "broken: x"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestStandardVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := NewStandard(log.New(&buf, "", 0), true)
	l.Debug("visible %d", 7)
	if !strings.Contains(buf.String(), "visible 7") {
		t.Fatalf("verbose logger must emit debug lines: %q", buf.String())
	}
}

func TestMockRecordsCalls(t *testing.T) {
	m := NewMock()
	m.Debug("d %d", 1)
	m.Info("i")
	m.Info("i2")
	m.Warning("w")
	m.Error("e")

	if len(m.DebugCalls) != 1 || len(m.InfoCalls) != 2 ||
		len(m.WarningCalls) != 1 || len(m.ErrorCalls) != 1 {
		t.Fatalf("unexpected call counts: %d %d %d %d",
			len(m.DebugCalls), len(m.InfoCalls), len(m.WarningCalls), len(m.ErrorCalls))
	}
	if m.DebugCalls[0] != "d 1" {
		t.Fatalf("DebugCalls[0] = %q", m.DebugCalls[0])
	}
}

func TestNopIsSilent(t *testing.T) {
	// Just must not panic.
	n := NewNop()
	n.Debug("x")
	n.Info("x")
	n.Warning("x")
	n.Error("x")
}
