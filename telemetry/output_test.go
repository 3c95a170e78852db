package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/orbitfall/ballistics"
	"github.com/pthm-cable/orbitfall/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v, want nil, nil", om, err)
	}
	// Methods on a nil manager are no-ops.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Errorf("WriteTelemetry on nil manager: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil manager: %v", err)
	}
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	sol := ballistics.Solution{Outcome: ballistics.BestEffort, Angle: 0.5, Iterations: 15, Miss: 4}
	for tick := int32(1); tick <= 2; tick++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: tick * 300, Shots: int(tick)}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
		if err := om.WriteAim([]AimRecord{NewAimRecord(tick, 1, 2, 90, sol)}); err != nil {
			t.Fatalf("WriteAim: %v", err)
		}
	}
	if err := om.WritePerf(PerfStats{}, 600); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteConfig(config.MustLoad("")); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tests := []struct {
		file   string
		header string
		lines  int
	}{
		{"telemetry.csv", "window_end,", 3},
		{"aim.csv", "tick,shooter,target,distance,outcome,", 3},
		{"perf.csv", "window_end,avg_tick_us,", 2},
	}
	for _, tc := range tests {
		data, err := os.ReadFile(filepath.Join(dir, tc.file))
		if err != nil {
			t.Fatalf("reading %s: %v", tc.file, err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != tc.lines {
			t.Errorf("%s has %d lines, want %d", tc.file, len(lines), tc.lines)
		}
		if !strings.HasPrefix(lines[0], tc.header) {
			t.Errorf("%s header = %q, want prefix %q", tc.file, lines[0], tc.header)
		}
	}

	aim, _ := os.ReadFile(filepath.Join(dir, "aim.csv"))
	if !strings.Contains(string(aim), ",best_effort,") {
		t.Errorf("aim.csv missing outcome name: %s", aim)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
}
