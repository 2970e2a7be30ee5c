package gc

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := defaultConfig()
	cfg.InitialThreshold = 4096
	cfg.GrowthFactor = 2.25
	cfg.PollInterval = 25 * time.Millisecond
	cfg.StepBudget = 32
	cfg.Automatic = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if loaded.InitialThreshold != cfg.InitialThreshold {
		t.Fatalf("InitialThreshold = %d, want %d", loaded.InitialThreshold, cfg.InitialThreshold)
	}
	if loaded.GrowthFactor != cfg.GrowthFactor {
		t.Fatalf("GrowthFactor = %v, want %v", loaded.GrowthFactor, cfg.GrowthFactor)
	}
	if loaded.StepBudget != cfg.StepBudget {
		t.Fatalf("StepBudget = %d, want %d", loaded.StepBudget, cfg.StepBudget)
	}
	if !loaded.Automatic {
		t.Fatal("expected Automatic to round-trip true")
	}
}

func TestNewAppliesOptions(t *testing.T) {
	ctx := New(WithInitialThreshold(123))
	defer ctx.Close()

	if got := ctx.Heap().Stats().Threshold; got != 123 {
		t.Fatalf("threshold = %d, want 123", got)
	}
}

func TestCloseInDebugModePanicsOnOutstandingRoots(t *testing.T) {
	ctx := New(WithDebug(nil))
	r := Allocate(ctx, 7)
	defer r.Release()

	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("expected Close to panic with an outstanding root in debug mode")
		}
		err, ok := rec.(error)
		if !ok || !errors.Is(err, ErrHeapInUse) {
			t.Fatalf("panic value = %v, want it to wrap ErrHeapInUse", rec)
		}
	}()
	ctx.Close()
}
