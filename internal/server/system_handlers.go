package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/aristath/tradingcal/internal/database"
	"github.com/aristath/tradingcal/internal/modules/calendar"
	"github.com/aristath/tradingcal/internal/modules/market_hours"
	"github.com/aristath/tradingcal/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves process, storage and job information
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	db          *database.DB
	marketHours *market_hours.MarketHoursService
	cache       *calendar.Cache
	jobs        map[string]scheduler.Job
	now         func() time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	db *database.DB,
	marketHours *market_hours.MarketHoursService,
	cache *calendar.Cache,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		startupTime: time.Now(),
		db:          db,
		marketHours: marketHours,
		cache:       cache,
		jobs:        make(map[string]scheduler.Job),
		now:         time.Now,
	}
}

// SetJobs registers the jobs that can be triggered manually
func (h *SystemHandlers) SetJobs(jobs map[string]scheduler.Job) {
	h.jobs = make(map[string]scheduler.Job, len(jobs))
	for name, job := range jobs {
		h.jobs[name] = job
	}
}

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status        string               `json:"status"` // "healthy" or "degraded"
	Uptime        string               `json:"uptime"`
	CPUPercent    float64              `json:"cpu_percent"`
	MemoryPercent float64              `json:"memory_percent"`
	Database      string               `json:"database"` // "ok" or the health check error
	Exchanges     int                  `json:"exchanges"`
	OpenMarkets   []string             `json:"open_markets"`
	Cache         *calendar.CacheStats `json:"cache,omitempty"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	SizeMB      float64 `json:"size_mb"`
	WALSizeMB   float64 `json:"wal_size_mb"`
	LastChecked string  `json:"last_checked"`
}

// JobsStatusResponse represents the manually triggerable jobs
type JobsStatusResponse struct {
	TotalJobs int      `json:"total_jobs"`
	Jobs      []string `json:"jobs"`
}

// HandleSystemStatus returns comprehensive system status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	now := h.now()
	response := SystemStatusResponse{
		Status:      "healthy",
		Uptime:      now.Sub(h.startupTime).Round(time.Second).String(),
		Database:    "ok",
		OpenMarkets: []string{},
	}
	response.CPUPercent, response.MemoryPercent = h.getSystemStats()

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.db.HealthCheck(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Database health check failed")
			response.Status = "degraded"
			response.Database = err.Error()
		}
	}

	if h.marketHours != nil {
		response.Exchanges = len(h.marketHours.Codes())
		response.OpenMarkets = h.marketHours.GetOpenMarkets(now)
	}

	if h.cache != nil {
		stats := h.cache.Stats()
		response.Cache = &stats
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats returns database file statistics
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		http.Error(w, "Database not configured", http.StatusServiceUnavailable)
		return
	}

	h.writeJSON(w, http.StatusOK, DatabaseStatsResponse{
		Name:        h.db.Name(),
		Path:        h.db.Path(),
		SizeMB:      fileSizeMB(h.db.Path()),
		WALSizeMB:   fileSizeMB(h.db.Path() + "-wal"),
		LastChecked: h.now().Format(time.RFC3339),
	})
}

// HandleJobsStatus lists the jobs that can be triggered
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	h.writeJSON(w, http.StatusOK, JobsStatusResponse{TotalJobs: len(names), Jobs: names})
}

// HandleTriggerJob runs a registered job immediately
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		http.Error(w, "Job not registered", http.StatusNotFound)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job run triggered")
	if err := job.Run(r.Context()); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": name + " completed"})
}

// getSystemStats calculates CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// A short sampling window keeps the endpoint responsive
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func fileSizeMB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / 1024 / 1024
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
