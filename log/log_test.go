package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestModuleFiltering(t *testing.T) {
	var buf bytes.Buffer
	prev := Root()
	defer SetDefault(prev)
	SetDefault(NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: LevelTrace})))

	Debug(TreeMonitoring, "hidden debug")
	if buf.Len() != 0 {
		t.Fatalf("debug output for disabled module: %q", buf.String())
	}

	EnableModules("tree_mod, region_mod")
	defer DisableModule(TreeMonitoring)
	defer DisableModule(RegionMonitoring)

	Debug(TreeMonitoring, "visible debug", "leaves", 3)
	out := buf.String()
	if !strings.Contains(out, "visible debug") || !strings.Contains(out, "module=tree_mod") || !strings.Contains(out, "leaves=3") {
		t.Errorf("unexpected debug output: %q", out)
	}

	buf.Reset()
	Info(RuntimeMonitoring, "always on")
	if !strings.Contains(buf.String(), "always on") {
		t.Errorf("info should not be filtered by module: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"trace": LevelTrace, "DEBUG": LevelDebug, "info": LevelInfo,
		"warning": LevelWarn, "error": LevelError, "crit": LevelCrit,
	} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
