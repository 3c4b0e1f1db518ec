package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/courtsight/courtsight/internal/database"
	"github.com/courtsight/courtsight/internal/modules/runlog"
	"github.com/courtsight/courtsight/internal/scheduler"
)

// SystemHandlers serves system status, database stats and manual job
// triggers.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases []*database.DB
	runs      *runlog.Repository
	startedAt time.Time

	sched *scheduler.Scheduler
	jobs  map[string]scheduler.Job
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, dataDir string, databases []*database.DB, runs *runlog.Repository) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		databases: databases,
		runs:      runs,
		startedAt: time.Now(),
		jobs:      map[string]scheduler.Job{},
	}
}

// SetJobs registers job instances for manual triggering via API
func (h *SystemHandlers) SetJobs(sched *scheduler.Scheduler, jobs ...scheduler.Job) {
	h.sched = sched
	for _, job := range jobs {
		h.jobs[job.Name()] = job
	}
}

// RegisterRoutes registers all system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleStatus)
		r.Get("/database/stats", h.HandleDatabaseStats)
		r.Get("/runs", h.HandleRuns)
		r.Post("/jobs/{name}", h.HandleTriggerJob)
	})
}

// StatusResponse is the system status payload.
type StatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	GoVersion     string  `json:"go_version"`
	NumGoroutine  int     `json:"num_goroutine"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemUsedPct    float64 `json:"mem_used_pct"`
	MemUsedMB     float64 `json:"mem_used_mb"`
}

// HandleStatus returns process and host health.
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		GoVersion:     runtime.Version(),
		NumGoroutine:  runtime.NumGoroutine(),
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		response.CPUPercent = cpuPercent[0]
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		response.MemUsedPct = memStat.UsedPercent
		response.MemUsedMB = float64(memStat.Used) / 1024 / 1024
	}

	writeJSON(w, http.StatusOK, response)
}

// DBStatsEntry is one database's stats in the response.
type DBStatsEntry struct {
	Name      string  `json:"name"`
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
	PageCount int64   `json:"page_count"`
}

// HandleDatabaseStats returns per-database size and page statistics.
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	entries := make([]DBStatsEntry, 0, len(h.databases))
	totalMB := 0.0

	for _, db := range h.databases {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			continue
		}

		sizeMB := float64(stats.SizeBytes) / 1024 / 1024
		totalMB += sizeMB
		entries = append(entries, DBStatsEntry{
			Name:      db.Name(),
			SizeMB:    sizeMB,
			WALSizeMB: float64(stats.WALSizeBytes) / 1024 / 1024,
			PageCount: stats.PageCount,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"databases":   entries,
		"total_mb":    totalMB,
		"data_dir_mb": h.getDirSize(h.dataDir),
	})
}

// HandleRuns returns recent pipeline runs of any kind.
func (h *SystemHandlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	entries, err := h.runs.Recent(r.URL.Query().Get("kind"), 50)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load run log")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load run log"})
		return
	}
	if entries == nil {
		entries = []runlog.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  entries,
		"count": len(entries),
	})
}

// HandleTriggerJob runs a registered scheduler job immediately.
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	job, ok := h.jobs[name]
	if !ok || h.sched == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown job"})
		return
	}

	if err := h.sched.RunNow(job); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"job": name, "status": "completed"})
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	_ = filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	return float64(totalSize) / 1024 / 1024
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
