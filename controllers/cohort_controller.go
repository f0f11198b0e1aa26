package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"wedmatch_server/services"
)

// generationTimeout bounds one cohort run; pairwise scoring outlives the request timeout.
const generationTimeout = 2 * time.Minute

// RunArchive resolves archived generation runs.
type RunArchive interface {
	ReadURL(ctx context.Context, cohortID, runID string) (string, error)
}

// CohortController triggers match generation for a cohort.
type CohortController struct {
	Base
	Generator *services.MatchGenerator
	Archive   RunArchive
}

type generateRequest struct {
	MinScore float64 `json:"minScore" validate:"gte=0,lte=100"`
}

// GenerateHandler serves POST /api/cohorts/{cohortId}/generate
func (c *CohortController) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), generationTimeout)
	defer cancel()

	run, err := c.Generator.GenerateForCohort(ctx, mux.Vars(r)["cohortId"], req.MinScore)
	if err != nil {
		c.writeError(w, "generate", err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, run)
}

// RunReportHandler serves GET /api/cohorts/{cohortId}/runs/{runId}/report with a presigned URL.
func (c *CohortController) RunReportHandler(w http.ResponseWriter, r *http.Request) {
	if c.Archive == nil {
		WriteJSONResponse(w, http.StatusNotFound, errorResponse{Error: "run archive is not configured"})
		return
	}
	vars := mux.Vars(r)
	ctx, cancel := c.requestContext(r)
	defer cancel()

	url, err := c.Archive.ReadURL(ctx, vars["cohortId"], vars["runId"])
	if err != nil {
		c.writeError(w, "runReport", err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, map[string]string{"url": url})
}
