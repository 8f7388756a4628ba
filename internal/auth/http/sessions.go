package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/claimdesk/internal/auth/service"
	"github.com/aussiebroadwan/claimdesk/pkg/authsdk"
	"github.com/aussiebroadwan/claimdesk/pkg/httpx"
)

type SessionsHandler struct {
	Sessions *service.SessionService
}

// HandleList godoc
//
//	@Summary		List sessions
//	@Description	List every credential of a user: access and refresh sessions as well as
//	@Description	outstanding reset and invitation tokens. Bearer strings are never returned.
//	@Description	Users may list their own sessions; admins may list anyone's.
//	@Tags			Sessions
//	@Produce		json
//	@Param			user_id	query		string	false	"defaults to the caller"
//	@Success		200		{object}	authsdk.SessionListResponse
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse
//	@Failure		500		{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/sessions [get].
func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	target := r.URL.Query().Get("user_id")
	if target == "" {
		target = claims.Subject
	}

	creds, err := h.Sessions.ListSessions(ctx, claims.Subject, target, claims.Roles)
	if err != nil {
		writeServiceError(ctx, w, err, "failed to list sessions")
		return
	}

	now := time.Now()
	resp := authsdk.SessionListResponse{
		UserID:   target,
		Sessions: make([]authsdk.SessionResponse, 0, len(creds)),
	}
	for _, c := range creds {
		resp.Sessions = append(resp.Sessions, sessionResponse(c, claims.ID, now))
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRevoke godoc
//
//	@Summary		Revoke a session
//	@Description	Revoke an access or refresh credential by id. Revoking twice is not an error.
//	@Tags			Sessions
//	@Param			id	path	string	true	"session id"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"not an access or refresh session"
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Failure		403	{object}	authsdk.ErrorResponse
//	@Failure		404	{object}	authsdk.ErrorResponse
//	@Failure		500	{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [delete].
func (h *SessionsHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeBadRequest(w, "session id is required")
		return
	}

	if err := h.Sessions.RevokeSession(ctx, claims.Subject, claims.Roles, id); err != nil {
		writeServiceError(ctx, w, err, "failed to revoke session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleLogout godoc
//
//	@Summary		Log out
//	@Description	Revoke the access token used for this request.
//	@Tags			Sessions
//	@Success		204
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Failure		500	{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/logout [post].
func (h *SessionsHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.Sessions.RevokeBearer(ctx, claims); err != nil {
		writeServiceError(ctx, w, err, "failed to log out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
