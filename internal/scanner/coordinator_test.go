package scanner

import (
	"sync"
	"testing"
	"time"
)

func TestTryStartScanIsExclusive(t *testing.T) {
	env := newTestEnv(t)
	c := NewCoordinator(env.scanner)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.tryStartScan()
		}()
	}
	wg.Wait()
	close(results)

	started := 0
	for ok := range results {
		if ok {
			started++
		}
	}
	if started != 1 {
		t.Errorf("Expected exactly one acquisition, got %d", started)
	}

	if !c.IsScanning() {
		t.Error("Expected IsScanning true while acquired")
	}
	c.finishScan()
	if c.IsScanning() {
		t.Error("Expected IsScanning false after release")
	}
}

func TestTriggerScanRejectedWhileRunning(t *testing.T) {
	env := newTestEnv(t)
	c := NewCoordinator(env.scanner)

	if !c.tryStartScan() {
		t.Fatal("Failed to acquire scan slot")
	}
	defer c.finishScan()

	if c.TriggerScan() {
		t.Error("Expected trigger to be rejected while a scan is in flight")
	}
}

func TestTriggerScanRunsReconcile(t *testing.T) {
	env := newTestEnv(t)
	root := t.TempDir()

	writeFileTree(t, root, map[string]string{"a.mp4": "video"})
	env.writeConfig(movieLibraryYAML("Movies", root, false))

	c := NewCoordinator(env.scanner)
	if !c.TriggerScan() {
		t.Fatal("Expected trigger to start a scan")
	}
	c.Stop()

	stats := env.cat.GetStats()
	if stats.TotalItems != 1 {
		t.Errorf("Expected 1 item after triggered scan, got %d", stats.TotalItems)
	}
	if stats.LastScan.IsZero() {
		t.Error("Expected last-scan timestamp to be recorded")
	}
}

func TestRunTriggersInitialScan(t *testing.T) {
	env := newTestEnv(t)
	root := t.TempDir()

	writeFileTree(t, root, map[string]string{"a.mp4": "video"})
	env.writeConfig(movieLibraryYAML("Movies", root, false))

	c := NewCoordinator(env.scanner)
	c.Run(time.Hour)
	c.Stop()

	if env.cat.GetStats().TotalItems != 1 {
		t.Error("Expected initial scan to index the library")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig("")

	c := NewCoordinator(env.scanner)
	c.Run(time.Hour)
	c.Stop()
	c.Stop()
}
