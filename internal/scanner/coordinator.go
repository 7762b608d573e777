package scanner

import (
	"context"
	"sync"
	"time"

	"mediahub/internal/logging"
	"mediahub/internal/metrics"
)

// Coordinator serializes scan execution: at most one scan runs at a time
// process-wide. Triggers while a scan is in flight are rejected, never
// queued; the caller re-triggers if it wants another pass.
type Coordinator struct {
	scanner *Scanner

	mu       sync.Mutex
	scanning bool

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewCoordinator creates a coordinator around a scanner.
func NewCoordinator(scanner *Scanner) *Coordinator {
	return &Coordinator{
		scanner:  scanner,
		stopChan: make(chan struct{}),
	}
}

// TriggerScan starts a scan on a background goroutine if none is running.
// Returns true when a scan was started, false when one was already in
// flight. The check-and-acquire is atomic, so two near-simultaneous
// triggers can never both start.
func (c *Coordinator) TriggerScan() bool {
	if !c.tryStartScan() {
		metrics.ScanRejectedTotal.Inc()
		logging.Info("Scan already in progress, skipping...")
		return false
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.finishScan()
		c.runScan()
	}()

	return true
}

// IsScanning reports whether a scan is currently executing.
func (c *Coordinator) IsScanning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scanning
}

// Run triggers an initial scan and then re-triggers on the given interval
// until Stop is called. Ticks that land while a scan is still running are
// rejected by TriggerScan, not queued.
func (c *Coordinator) Run(interval time.Duration) {
	c.TriggerScan()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.TriggerScan()
			case <-c.stopChan:
				return
			}
		}
	}()
}

// Stop halts periodic scanning and waits for any in-flight scan.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.wg.Wait()
}

func (c *Coordinator) tryStartScan() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scanning {
		return false
	}
	c.scanning = true
	return true
}

func (c *Coordinator) finishScan() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scanning = false
}

func (c *Coordinator) runScan() {
	metrics.ScanIsRunning.Set(1)
	defer metrics.ScanIsRunning.Set(0)
	metrics.ScanRunsTotal.Inc()

	start := time.Now()
	logging.Info("Starting catalog scan...")

	if _, err := c.scanner.Reconcile(context.Background()); err != nil {
		metrics.ScanErrors.Inc()
		logging.Error("Scan failed: %v", err)
		return
	}

	metrics.ScanLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.ScanLastRunDuration.Set(time.Since(start).Seconds())
}
