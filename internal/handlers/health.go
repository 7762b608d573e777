package handlers

import (
	"net/http"
	"runtime"

	"mediahub/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
)

// HealthResponse contains the health check response.
type HealthResponse struct {
	Status   string `json:"status"`
	Ready    bool   `json:"ready"`
	Version  string `json:"version"`
	Scanning bool   `json:"scanning"`
	LastScan string `json:"lastScan,omitempty"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	TotalItems   int `json:"totalItems,omitempty"`
	TotalFolders int `json:"totalFolders,omitempty"`
}

// HealthCheck returns the health status of the service.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	stats := h.cat.GetStats()
	ready := !stats.LastScan.IsZero()

	response := HealthResponse{
		Ready:        ready,
		Version:      startup.Version,
		Scanning:     h.coordinator.IsScanning(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
		TotalItems:   stats.TotalItems,
		TotalFolders: stats.TotalFolders,
	}

	if ready {
		response.Status = statusHealthy
		response.LastScan = stats.LastScan.Format("2006-01-02T15:04:05Z07:00")
	} else {
		response.Status = statusStarting
	}

	writeJSON(w, response)
}

// LivenessCheck reports that the process is up.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, "alive")
}

// ReadinessCheck reports whether the first scan has completed.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.cat.GetStats().LastScan.IsZero() {
		writeJSONError(w, "initial scan not complete", http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, "ready")
}

// GetVersion returns build information.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, startup.GetBuildInfo())
}
