package workers

import (
	"runtime"
	"testing"
)

func TestCountRespectsLimit(t *testing.T) {
	t.Setenv("ENRICH_WORKERS", "")

	if got := Count(2.0, 1); got != 1 {
		t.Errorf("Expected limit to cap workers at 1, got %d", got)
	}
}

func TestCountMinimumOne(t *testing.T) {
	t.Setenv("ENRICH_WORKERS", "")

	if got := Count(0.0, 0); got != 1 {
		t.Errorf("Expected at least 1 worker, got %d", got)
	}
}

func TestCountEnvOverride(t *testing.T) {
	t.Setenv("ENRICH_WORKERS", "7")

	if got := Count(1.0, 0); got != 7 {
		t.Errorf("Expected override of 7 workers, got %d", got)
	}
	if got := Count(1.0, 4); got != 4 {
		t.Errorf("Expected limit to cap the override at 4, got %d", got)
	}
}

func TestCountInvalidOverrideIgnored(t *testing.T) {
	t.Setenv("ENRICH_WORKERS", "banana")

	want := runtime.GOMAXPROCS(0)
	if got := Count(1.0, 0); got != want {
		t.Errorf("Expected %d workers for invalid override, got %d", want, got)
	}
}

func TestForIODoublesCPUCount(t *testing.T) {
	t.Setenv("ENRICH_WORKERS", "")

	want := 2 * runtime.GOMAXPROCS(0)
	if got := ForIO(0); got != want {
		t.Errorf("Expected %d workers, got %d", want, got)
	}
}
