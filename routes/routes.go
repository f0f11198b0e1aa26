package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"wedmatch_server/controllers"
)

// Controllers groups everything the API router dispatches to.
type Controllers struct {
	Interactions *controllers.InteractionController
	Matches      *controllers.MatchController
	Openings     *controllers.OpeningController
	Cohorts      *controllers.CohortController
}

// RegisterRoutes mounts every API route on r.
func RegisterRoutes(r *mux.Router, c Controllers) {
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods(http.MethodGet)

	RegisterInteractionRoutes(r, c.Interactions)
	RegisterMatchRoutes(r, c.Matches)
	RegisterOpeningRoutes(r, c.Openings)
	RegisterCohortRoutes(r, c.Cohorts)
}

// RegisterInteractionRoutes registers all interaction routes under `/api/interactions`
func RegisterInteractionRoutes(router *mux.Router, controller *controllers.InteractionController) {
	interactionRouter := router.PathPrefix("/api/interactions").Subrouter()

	interactionRouter.HandleFunc("/users/{userId:[0-9]+}/{list}", controller.ListSignalsHandler).Methods(http.MethodGet)
	interactionRouter.HandleFunc("/{action}", controller.RecordSignalHandler).Methods(http.MethodPost)
}

// RegisterMatchRoutes registers all match routes under `/api/matches`
func RegisterMatchRoutes(router *mux.Router, controller *controllers.MatchController) {
	matchRouter := router.PathPrefix("/api/matches").Subrouter()

	matchRouter.HandleFunc("", controller.CreateMatchHandler).Methods(http.MethodPost)
	matchRouter.HandleFunc("/pair", controller.GetPairHandler).Methods(http.MethodGet)
	matchRouter.HandleFunc("/top", controller.ListByScoreHandler).Methods(http.MethodGet)
	matchRouter.HandleFunc("/user/{userId:[0-9]+}", controller.ListUserMatchesHandler).Methods(http.MethodGet)
	matchRouter.HandleFunc("/source/{source}", controller.ListBySourceHandler).Methods(http.MethodGet)
	matchRouter.HandleFunc("/{matchId}", controller.GetMatchHandler).Methods(http.MethodGet)
	matchRouter.HandleFunc("/{matchId}/{action}", controller.MatchActionHandler).Methods(http.MethodPost)
}

// RegisterOpeningRoutes registers the opening message routes under `/api/openings`
func RegisterOpeningRoutes(router *mux.Router, controller *controllers.OpeningController) {
	openingRouter := router.PathPrefix("/api/openings").Subrouter()

	openingRouter.HandleFunc("", controller.SendOpeningHandler).Methods(http.MethodPost)
	openingRouter.HandleFunc("/pending/{userId:[0-9]+}", controller.PendingOpeningsHandler).Methods(http.MethodGet)
	openingRouter.HandleFunc("/{messageId}/approve", controller.ApproveOpeningHandler).Methods(http.MethodPost)
	openingRouter.HandleFunc("/{messageId}/reject", controller.RejectOpeningHandler).Methods(http.MethodPost)
}

// RegisterCohortRoutes registers the batch generation routes under `/api/cohorts`
func RegisterCohortRoutes(router *mux.Router, controller *controllers.CohortController) {
	cohortRouter := router.PathPrefix("/api/cohorts").Subrouter()

	cohortRouter.HandleFunc("/{cohortId}/generate", controller.GenerateHandler).Methods(http.MethodPost)
	cohortRouter.HandleFunc("/{cohortId}/runs/{runId}/report", controller.RunReportHandler).Methods(http.MethodGet)
}
