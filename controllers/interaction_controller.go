package controllers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"wedmatch_server/models"
	"wedmatch_server/services"
)

// InteractionController handles API requests related to interactions
type InteractionController struct {
	Base
	InteractionService *services.InteractionService
}

type signalRequest struct {
	ActorID    int64   `json:"actorId" validate:"required,gt=0"`
	TargetID   int64   `json:"targetId" validate:"required,gt=0"`
	LiveEvent  bool    `json:"liveEvent"`
	Source     string  `json:"source" validate:"omitempty,oneof=user admin system ai"`
	Days       *int    `json:"days,omitempty"`
	Reason     *string `json:"reason,omitempty" validate:"omitempty,max=500"`
	ReportType string  `json:"reportType,omitempty" validate:"omitempty,max=64"`
	Details    string  `json:"details,omitempty" validate:"omitempty,max=2000"`
}

func (req signalRequest) interactionContext() models.InteractionContext {
	return models.InteractionContext{LiveEvent: req.LiveEvent, Source: req.Source}
}

type signalHandler func(ctx context.Context, req signalRequest) (*models.InteractionResult, error)

// actions maps the {action} path segment to the engine operation.
func (c *InteractionController) actions() map[string]signalHandler {
	s := c.InteractionService
	return map[string]signalHandler{
		"like": func(ctx context.Context, r signalRequest) (*models.InteractionResult, error) {
			return s.Like(ctx, r.ActorID, r.TargetID, r.interactionContext())
		},
		"dislike": func(ctx context.Context, r signalRequest) (*models.InteractionResult, error) {
			return s.Dislike(ctx, r.ActorID, r.TargetID, r.interactionContext())
		},
		"super-like": func(ctx context.Context, r signalRequest) (*models.InteractionResult, error) {
			return s.SuperLike(ctx, r.ActorID, r.TargetID, r.interactionContext())
		},
		"freeze": func(ctx context.Context, r signalRequest) (*models.InteractionResult, error) {
			return s.Freeze(ctx, r.ActorID, r.TargetID, r.Days, r.interactionContext())
		},
		"unfreeze": func(ctx context.Context, r signalRequest) (*models.InteractionResult, error) {
			return s.Unfreeze(ctx, r.ActorID, r.TargetID, r.Reason, r.interactionContext())
		},
		"block": func(ctx context.Context, r signalRequest) (*models.InteractionResult, error) {
			return s.Block(ctx, r.ActorID, r.TargetID, r.Reason, r.interactionContext())
		},
		"unblock": func(ctx context.Context, r signalRequest) (*models.InteractionResult, error) {
			return s.Unblock(ctx, r.ActorID, r.TargetID, r.Reason, r.interactionContext())
		},
		"view": func(ctx context.Context, r signalRequest) (*models.InteractionResult, error) {
			return s.ViewProfile(ctx, r.ActorID, r.TargetID, r.interactionContext())
		},
		"report": func(ctx context.Context, r signalRequest) (*models.InteractionResult, error) {
			return s.ReportUser(ctx, r.ActorID, r.TargetID, r.ReportType, r.Details, r.interactionContext())
		},
		"undo-dislike": func(ctx context.Context, r signalRequest) (*models.InteractionResult, error) {
			return s.UndoDislike(ctx, r.ActorID, r.TargetID, r.interactionContext())
		},
		"cancel-like": func(ctx context.Context, r signalRequest) (*models.InteractionResult, error) {
			return s.CancelLike(ctx, r.ActorID, r.TargetID, r.interactionContext())
		},
		"cancel-super-like": func(ctx context.Context, r signalRequest) (*models.InteractionResult, error) {
			return s.CancelSuperLike(ctx, r.ActorID, r.TargetID, r.interactionContext())
		},
		"cancel-freeze": func(ctx context.Context, r signalRequest) (*models.InteractionResult, error) {
			return s.CancelFreeze(ctx, r.ActorID, r.TargetID, r.interactionContext())
		},
		"cancel-dislike": func(ctx context.Context, r signalRequest) (*models.InteractionResult, error) {
			return s.CancelDislike(ctx, r.ActorID, r.TargetID, r.interactionContext())
		},
	}
}

// RecordSignalHandler processes POST /api/interactions/{action}
func (c *InteractionController) RecordSignalHandler(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	handler, ok := c.actions()[action]
	if !ok {
		WriteJSONResponse(w, http.StatusNotFound, errorResponse{Error: "unknown interaction " + action})
		return
	}
	var req signalRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := c.requestContext(r)
	defer cancel()

	res, err := handler(ctx, req)
	if err != nil {
		c.writeError(w, action, err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, res)
}

// ListSignalsHandler serves GET /api/interactions/users/{userId}/{list}
func (c *InteractionController) ListSignalsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt64(w, r, "userId")
	if !ok {
		return
	}
	ctx, cancel := c.requestContext(r)
	defer cancel()

	var (
		out interface{}
		err error
	)
	s := c.InteractionService
	switch list := mux.Vars(r)["list"]; list {
	case "likes-given":
		out, err = s.LikesGiven(ctx, userID, limit(r))
	case "likes-received":
		out, err = s.LikesReceived(ctx, userID, limit(r))
	case "freezes":
		out, err = s.FreezesGiven(ctx, userID, limit(r))
	case "blocks":
		out, err = s.BlocksGiven(ctx, userID, limit(r))
	case "mutual":
		out, err = s.MutualTargets(ctx, userID, limit(r))
	case "views":
		var n int64
		n, err = s.ViewCount(ctx, userID)
		out = map[string]int64{"viewCount": n}
	default:
		WriteJSONResponse(w, http.StatusNotFound, errorResponse{Error: "unknown list " + list})
		return
	}
	if err != nil {
		c.writeError(w, "list", err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, out)
}
