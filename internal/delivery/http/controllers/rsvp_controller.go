package controllers

import (
	"log/slog"
	"net/http"

	h "eventrsvp/internal/delivery/http/helpers"
	"eventrsvp/internal/delivery/http/middleware"
	"eventrsvp/internal/domain"
)

// SubmitRSVPRequest is the request body for POST /events/{id}/rsvp.
// UserID falls back to the session user when omitted.
type SubmitRSVPRequest struct {
	UserID   *int64 `json:"userId"`
	Response string `json:"response" validate:"required"`
}

// RSVPSuccessResponse is the success envelope for POST /events/{id}/rsvp.
type RSVPSuccessResponse struct {
	Data  *domain.RSVP `json:"data"`
	Error *h.APIError  `json:"error"`
}

// RSVPSummarySuccessResponse is the success envelope for GET /events/{id}/rsvps.
type RSVPSummarySuccessResponse struct {
	Data  *domain.RSVPSummary `json:"data"`
	Error *h.APIError         `json:"error"`
}

// RSVPGroupsSuccessResponse is the success envelope for GET /rsvp/summary.
type RSVPGroupsSuccessResponse struct {
	Data  []*domain.RSVPResponseCount `json:"data"`
	Error *h.APIError                 `json:"error"`
}

type RSVPController struct {
	Logger  *slog.Logger
	Service domain.RSVPService
}

func NewRSVPController(logger *slog.Logger, svc domain.RSVPService) *RSVPController {
	return &RSVPController{
		Logger:  logger,
		Service: svc,
	}
}

// SubmitRSVP godoc
// @Summary Submit an RSVP
// @Description Record a YES, NO or MAYBE response for an event. userId defaults to the logged-in user.
// @Tags rsvps
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param body body SubmitRSVPRequest true "RSVP"
// @Success 201 {object} RSVPSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id}/rsvp [post]
func (c *RSVPController) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}
	var req SubmitRSVPRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	var userID int64
	if req.UserID != nil {
		userID = *req.UserID
	} else if user, ok := middleware.CurrentUser(r.Context()); ok {
		userID = user.ID
	}
	rsvp, err := c.Service.SubmitRSVP(r.Context(), eventID, userID, req.Response)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, rsvp)
}

// GetRSVPSummary godoc
// @Summary RSVP counters for an event
// @Description totalRSVPs counts every RSVP row, pendingRSVPs counts MAYBE responses.
// @Tags rsvps
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} RSVPSummarySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id}/rsvps [get]
func (c *RSVPController) GetRSVPSummary(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}
	summary, err := c.Service.GetRSVPSummary(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, summary)
}

// GroupByResponse godoc
// @Summary RSVP counts by response
// @Description Count RSVPs across all events grouped by response.
// @Tags rsvps
// @Produce json
// @Success 200 {object} RSVPGroupsSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rsvp/summary [get]
func (c *RSVPController) GroupByResponse(w http.ResponseWriter, r *http.Request) {
	groups, err := c.Service.GroupRSVPsByResponse(r.Context())
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, groups)
}
