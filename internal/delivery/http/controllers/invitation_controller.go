package controllers

import (
	"log/slog"
	"net/http"

	h "eventrsvp/internal/delivery/http/helpers"
	"eventrsvp/internal/delivery/http/middleware"
	"eventrsvp/internal/domain"
)

// InviteRequest is the request body for POST /events/{id}/invite.
type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// InviteResponse is the data payload for POST /events/{id}/invite.
type InviteResponse struct {
	Outcome domain.InviteOutcome `json:"outcome"`
	Message string               `json:"message"`
}

// InvitationListData is the data payload for GET /events/{id}/invitations.
type InvitationListData struct {
	Invitations []*domain.InvitationAttempt `json:"invitations"`
	Pagination  h.PaginationMeta            `json:"pagination"`
}

// InvitationListSuccessResponse is the success envelope for GET /events/{id}/invitations.
type InvitationListSuccessResponse struct {
	Data  InvitationListData `json:"data"`
	Error *h.APIError        `json:"error"`
}

var inviteMessages = map[domain.InviteOutcome]string{
	domain.InviteSent:           "Invitation sent successfully",
	domain.InviteAlreadyInvited: "User has already been invited to this event",
}

type InvitationController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

func NewInvitationController(logger *slog.Logger, svc domain.InvitationService) *InvitationController {
	return &InvitationController{
		Logger:  logger,
		Service: svc,
	}
}

// Invite godoc
// @Summary Invite someone to an event
// @Description Send an email invitation through the mailing list provider. Only the organizer may invite. An email already tagged for the event is not invited again.
// @Tags invitations
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param body body InviteRequest true "Recipient"
// @Success 200 {object} helpers.APIResponse "data: InviteResponse"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id}/invite [post]
func (c *InvitationController) Invite(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "authentication required")
		return
	}
	eventID, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}
	var req InviteRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	outcome, err := c.Service.Invite(r.Context(), eventID, user.ID, req.Email)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, InviteResponse{Outcome: outcome, Message: inviteMessages[outcome]})
}

// ListInvitations godoc
// @Summary List invitation attempts
// @Description Paginated invitation attempts for an event with their workflow state. Only the organizer may list them.
// @Tags invitations
// @Produce json
// @Param id path int true "Event ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} InvitationListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id}/invitations [get]
func (c *InvitationController) ListInvitations(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "authentication required")
		return
	}
	eventID, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}
	params := h.ParsePagination(r)
	attempts, total, err := c.Service.ListInvitations(r.Context(), eventID, user.ID, params)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if attempts == nil {
		attempts = []*domain.InvitationAttempt{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, InvitationListData{
		Invitations: attempts,
		Pagination:  h.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}
