package http

import (
	"net/http"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/internal/auth/service"
	"github.com/aussiebroadwan/claimdesk/pkg/authsdk"
	"github.com/aussiebroadwan/claimdesk/pkg/httpx"
)

type InvitationHandler struct {
	Users     *service.UserService
	SingleUse *service.SingleUseService
	Notifier  service.Notifier
}

// ServeHTTP godoc
//
//	@Summary		Invite a user
//	@Description	Issue an invitation token for an email address. Registering with it makes the
//	@Description	invitee staff. A sender holds one invitation at a time; a new one replaces the last.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.InvitationRequest	true	"email, device_name"
//	@Success		201		{object}	authsdk.InvitationResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse	"requires staff or admin"
//	@Failure		500		{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/invitations [post].
func (h *InvitationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.InvitationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	sender, err := h.Users.GetUserByID(ctx, userID)
	if err != nil {
		writeServiceError(ctx, w, err, "failed to load sender")
		return
	}

	token, err := h.SingleUse.IssueInvitationToken(ctx, req.Email, httpx.ClientIP(r), sender.ID, req.DeviceName)
	if err != nil {
		writeServiceError(ctx, w, err, "failed to issue invitation")
		return
	}

	if h.Notifier != nil {
		h.Notifier.Invitation(ctx, req.Email, token, sender)
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.InvitationResponse{
		Email:           domain.NormalizeEmail(req.Email),
		InvitationToken: token,
	})
}
