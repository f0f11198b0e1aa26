package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"wedmatch_server/services"
)

// OpeningController handles first messages sent before a match exists.
type OpeningController struct {
	Base
	OpeningService *services.OpeningService
}

type sendOpeningRequest struct {
	SenderID    int64  `json:"senderId" validate:"required,gt=0"`
	RecipientID int64  `json:"recipientId" validate:"required,gt=0"`
	Content     string `json:"content" validate:"required"`
}

type answerOpeningRequest struct {
	RecipientID int64 `json:"recipientId" validate:"required,gt=0"`
}

// SendOpeningHandler serves POST /api/openings
func (c *OpeningController) SendOpeningHandler(w http.ResponseWriter, r *http.Request) {
	var req sendOpeningRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := c.requestContext(r)
	defer cancel()

	msg, err := c.OpeningService.SendOpening(ctx, req.SenderID, req.RecipientID, req.Content)
	if err != nil {
		c.writeError(w, "sendOpening", err)
		return
	}
	WriteJSONResponse(w, http.StatusCreated, msg)
}

// ApproveOpeningHandler serves POST /api/openings/{messageId}/approve
func (c *OpeningController) ApproveOpeningHandler(w http.ResponseWriter, r *http.Request) {
	var req answerOpeningRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := c.requestContext(r)
	defer cancel()

	m, err := c.OpeningService.Approve(ctx, mux.Vars(r)["messageId"], req.RecipientID)
	if err != nil {
		c.writeError(w, "approveOpening", err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, m)
}

// RejectOpeningHandler serves POST /api/openings/{messageId}/reject
func (c *OpeningController) RejectOpeningHandler(w http.ResponseWriter, r *http.Request) {
	var req answerOpeningRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := c.requestContext(r)
	defer cancel()

	msg, err := c.OpeningService.Reject(ctx, mux.Vars(r)["messageId"], req.RecipientID)
	if err != nil {
		c.writeError(w, "rejectOpening", err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, msg)
}

// PendingOpeningsHandler serves GET /api/openings/pending/{userId}
func (c *OpeningController) PendingOpeningsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt64(w, r, "userId")
	if !ok {
		return
	}
	ctx, cancel := c.requestContext(r)
	defer cancel()

	msgs, err := c.OpeningService.Pending(ctx, userID, limit(r))
	if err != nil {
		c.writeError(w, "pendingOpenings", err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, msgs)
}
