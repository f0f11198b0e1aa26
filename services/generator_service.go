package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wedmatch_server/logger"
	"wedmatch_server/metrics"
	"wedmatch_server/models"
)

// MatchGenerator scores every unordered pair of a cohort and creates matches for the pairs at
// or above the threshold. It runs single-threaded; callers must not run two generations over
// the same cohort concurrently.
type MatchGenerator struct {
	cohorts  CohortSource
	matches  *MatchService
	reports  ReportSink
	notifier *Notifier
	log      *logger.Logger
	now      func() time.Time
}

func NewMatchGenerator(cohorts CohortSource, matches *MatchService, reports ReportSink, notifier *Notifier, baseLog *logger.Logger) *MatchGenerator {
	return &MatchGenerator{
		cohorts:  cohorts,
		matches:  matches,
		reports:  reports,
		notifier: notifier,
		log:      baseLog.With("service", "MatchGenerator"),
		now:      time.Now,
	}
}

// GenerateForCohort runs the pairwise scan. A failing pair is logged and counted, and the scan
// continues; only a failure to load the cohort aborts the run.
func (g *MatchGenerator) GenerateForCohort(ctx context.Context, cohortID string, minScore float64) (*models.GenerationRun, error) {
	cohortID = strings.TrimSpace(cohortID)
	if cohortID == "" {
		return nil, validationf("cohort id is required")
	}
	log := g.log.With("cohort_id", cohortID, "min_score", minScore)

	members, err := g.cohorts.Members(ctx, cohortID)
	if err != nil {
		return nil, fmt.Errorf("load cohort %s: %w", cohortID, err)
	}
	run := &models.GenerationRun{
		RunID:     uuid.NewString(),
		CohortID:  cohortID,
		MinScore:  minScore,
		Members:   len(members),
		MatchIDs:  []string{},
		StartedAt: g.now().UTC(),
	}
	log.Info("🔄 generating matches", "members", len(members))

	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			a, b := members[i], members[j]
			if a.UserID == b.UserID {
				continue
			}
			run.PairsScored++
			score := CompatibilityScore(a, b)
			if score < minScore {
				continue
			}
			run.Qualifying++
			m, created, err := g.matches.CreateOrGet(ctx, MatchParams{
				UserA:            a.UserID,
				UserB:            b.UserID,
				MeetingContextID: &cohortID,
				OriginContextID:  &cohortID,
				Score:            &score,
				Source:           models.MatchSourceWedding,
			})
			if err != nil {
				run.Failed++
				log.Warn("pair failed", "user_a", a.UserID, "user_b", b.UserID, "error", err)
				continue
			}
			if created {
				run.Created++
			} else {
				run.Existing++
			}
			run.MatchIDs = append(run.MatchIDs, m.ID)
		}
	}
	run.FinishedAt = g.now().UTC()
	metrics.PairsScored(run.PairsScored)

	if g.reports != nil {
		if err := g.reports.StoreRun(ctx, run); err != nil {
			log.Warn("could not archive generation run", "run_id", run.RunID, "error", err)
		}
	}
	g.notifier.Emit(ctx, models.EventCohortGenerated, map[string]interface{}{
		"cohortId": cohortID, "runId": run.RunID, "created": run.Created, "existing": run.Existing,
	})
	log.Info("✅ generation finished", "pairs", run.PairsScored, "qualifying", run.Qualifying,
		"created", run.Created, "existing", run.Existing, "failed", run.Failed)
	return run, nil
}
