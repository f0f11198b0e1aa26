package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"wedmatch_server/models"
	"wedmatch_server/services"
)

// MatchController exposes the match lifecycle.
type MatchController struct {
	Base
	MatchService *services.MatchService
}

type createMatchRequest struct {
	UserA            int64    `json:"userA" validate:"required,gt=0"`
	UserB            int64    `json:"userB" validate:"required,gt=0,nefield=UserA"`
	MeetingContextID *string  `json:"meetingContextId,omitempty" validate:"omitempty,max=128"`
	OriginContextID  *string  `json:"originContextId,omitempty" validate:"omitempty,max=128"`
	Score            *float64 `json:"score,omitempty" validate:"omitempty,gte=0,lte=100"`
	Source           string   `json:"source,omitempty" validate:"omitempty,oneof=wedding global opening"`
}

type matchActionRequest struct {
	UserID int64   `json:"userId"`
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// CreateMatchHandler serves POST /api/matches; an existing pair is returned with 200.
func (c *MatchController) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := c.requestContext(r)
	defer cancel()

	m, created, err := c.MatchService.CreateOrGet(ctx, services.MatchParams{
		UserA:            req.UserA,
		UserB:            req.UserB,
		MeetingContextID: req.MeetingContextID,
		OriginContextID:  req.OriginContextID,
		Score:            req.Score,
		Source:           req.Source,
	})
	if err != nil {
		c.writeError(w, "createMatch", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	WriteJSONResponse(w, status, m)
}

type matchAction func(ctx context.Context, matchID string, req matchActionRequest) (*models.Match, error)

func (c *MatchController) actions() map[string]matchAction {
	s := c.MatchService
	return map[string]matchAction{
		"approve": func(ctx context.Context, id string, req matchActionRequest) (*models.Match, error) {
			return s.Approve(ctx, id, req.UserID)
		},
		"unapprove": func(ctx context.Context, id string, req matchActionRequest) (*models.Match, error) {
			return s.Unapprove(ctx, id, req.UserID)
		},
		"block": func(ctx context.Context, id string, _ matchActionRequest) (*models.Match, error) {
			return s.Block(ctx, id)
		},
		"unblock": func(ctx context.Context, id string, _ matchActionRequest) (*models.Match, error) {
			return s.Unblock(ctx, id)
		},
		"freeze": func(ctx context.Context, id string, req matchActionRequest) (*models.Match, error) {
			return s.Freeze(ctx, id, req.Reason)
		},
		"unfreeze": func(ctx context.Context, id string, _ matchActionRequest) (*models.Match, error) {
			return s.Unfreeze(ctx, id)
		},
		"open-chat": func(ctx context.Context, id string, _ matchActionRequest) (*models.Match, error) {
			return s.OpenChat(ctx, id)
		},
		"close-chat": func(ctx context.Context, id string, _ matchActionRequest) (*models.Match, error) {
			return s.CloseChat(ctx, id)
		},
		"unmatch": func(ctx context.Context, id string, req matchActionRequest) (*models.Match, error) {
			return s.Unmatch(ctx, id, req.UserID)
		},
		"unread": func(ctx context.Context, id string, req matchActionRequest) (*models.Match, error) {
			return s.IncrementUnread(ctx, id, req.UserID)
		},
		"read": func(ctx context.Context, id string, req matchActionRequest) (*models.Match, error) {
			return s.MarkRead(ctx, id, req.UserID)
		},
	}
}

// MatchActionHandler serves POST /api/matches/{matchId}/{action}
func (c *MatchController) MatchActionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	action, ok := c.actions()[vars["action"]]
	if !ok {
		WriteJSONResponse(w, http.StatusNotFound, errorResponse{Error: "unknown match action " + vars["action"]})
		return
	}
	var req matchActionRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	ctx, cancel := c.requestContext(r)
	defer cancel()

	m, err := action(ctx, vars["matchId"], req)
	if err != nil {
		c.writeError(w, vars["action"], err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, m)
}

// GetMatchHandler serves GET /api/matches/{matchId}
func (c *MatchController) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.requestContext(r)
	defer cancel()

	m, err := c.MatchService.Get(ctx, mux.Vars(r)["matchId"])
	if err != nil {
		c.writeLookupError(w, "getMatch", err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, m)
}

// GetPairHandler serves GET /api/matches/pair?userA=&userB=
func (c *MatchController) GetPairHandler(w http.ResponseWriter, r *http.Request) {
	userA, ok := queryInt64(w, r, "userA")
	if !ok {
		return
	}
	userB, ok := queryInt64(w, r, "userB")
	if !ok {
		return
	}
	ctx, cancel := c.requestContext(r)
	defer cancel()

	m, err := c.MatchService.GetByPair(ctx, userA, userB)
	if err != nil {
		c.writeLookupError(w, "getPair", err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, m)
}

// ListUserMatchesHandler serves GET /api/matches/user/{userId}?status=
func (c *MatchController) ListUserMatchesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt64(w, r, "userId")
	if !ok {
		return
	}
	filter := models.MatchStatusFilter(r.URL.Query().Get("status"))
	switch filter {
	case models.MatchFilterAll, models.MatchFilterActive, models.MatchFilterMutual, models.MatchFilterPending,
		models.MatchFilterBlocked, models.MatchFilterFrozen, models.MatchFilterClosed:
	default:
		badRequest(w, "invalid status %q", filter)
		return
	}
	ctx, cancel := c.requestContext(r)
	defer cancel()

	matches, err := c.MatchService.ListForUser(ctx, userID, filter, limit(r))
	if err != nil {
		c.writeError(w, "listMatches", err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, matches)
}

// ListBySourceHandler serves GET /api/matches/source/{source}
func (c *MatchController) ListBySourceHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.requestContext(r)
	defer cancel()

	matches, err := c.MatchService.ListBySource(ctx, mux.Vars(r)["source"], limit(r))
	if err != nil {
		c.writeError(w, "listBySource", err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, matches)
}

// ListByScoreHandler serves GET /api/matches/top?minScore=
func (c *MatchController) ListByScoreHandler(w http.ResponseWriter, r *http.Request) {
	minScore := 0.0
	if raw := r.URL.Query().Get("minScore"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			badRequest(w, "invalid minScore")
			return
		}
		minScore = v
	}
	ctx, cancel := c.requestContext(r)
	defer cancel()

	matches, err := c.MatchService.ListByMinScore(ctx, minScore, limit(r))
	if err != nil {
		c.writeError(w, "listByScore", err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, matches)
}
