package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cortexbi/cortex/internal/pipeline"
	"github.com/cortexbi/cortex/internal/scheduler"
	"github.com/cortexbi/cortex/pkg/logger"
)

// OpsHandler serves the pipeline trigger and scheduler status endpoints.
type OpsHandler struct {
	orchestrator *pipeline.Orchestrator
	scheduler    *scheduler.Scheduler
	logger       *logger.Logger
}

// NewOpsHandler creates a new ops handler. The scheduler may be nil when
// the API runs without background jobs.
func NewOpsHandler(orchestrator *pipeline.Orchestrator, sched *scheduler.Scheduler, log *logger.Logger) *OpsHandler {
	return &OpsHandler{
		orchestrator: orchestrator,
		scheduler:    sched,
		logger:       log,
	}
}

// RunPipeline triggers one synchronous recompute.
// POST /api/pipeline/run
func (h *OpsHandler) RunPipeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.orchestrator.Run(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Pipeline run failed")
		respondError(w, http.StatusInternalServerError, "pipeline run failed: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":           result.RunID,
		"as_of":            result.AsOf,
		"success":          result.Success,
		"completed_stages": result.CompletedStages,
		"scored_customers": result.ScoredCustomers,
		"churn_flags":      result.ChurnFlags,
		"classified_items": result.ClassifiedItems,
		"cohort_cells":     result.CohortCells,
		"attribution_rows": result.AttributionRows,
		"duration_ms":      result.Duration.Milliseconds(),
	})
}

// GetJobs returns per-job scheduler statistics.
// GET /api/jobs
func (h *OpsHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "scheduler not running")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": h.scheduler.Stats(),
	})
}

// GetJobHistory returns recent executions of one job.
// GET /api/jobs/{name}/history
func (h *OpsHandler) GetJobHistory(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "scheduler not running")
		return
	}

	name := mux.Vars(r)["name"]
	history, err := h.scheduler.History(name)
	if err != nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"job":     name,
		"results": history.LatestResults(20),
	})
}

// TriggerJob runs one registered job outside its schedule.
// POST /api/jobs/{name}/run
func (h *OpsHandler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "scheduler not running")
		return
	}

	name := mux.Vars(r)["name"]
	if err := h.scheduler.RunJob(name); err != nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job":    name,
		"status": "triggered",
	})
}
