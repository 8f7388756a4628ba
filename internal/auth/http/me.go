package http

import (
	"net/http"

	"github.com/aussiebroadwan/claimdesk/internal/auth/service"
	"github.com/aussiebroadwan/claimdesk/pkg/authsdk"
	"github.com/aussiebroadwan/claimdesk/pkg/httpx"
)

type MeHandler struct {
	Users *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Current user
//	@Description	Returns the profile of the authenticated user.
//	@Tags			Users
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Failure		404	{object}	authsdk.ErrorResponse	"user no longer exists"
//	@Failure		500	{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.Users.GetUserByID(ctx, userID)
	if err != nil {
		writeServiceError(ctx, w, err, "failed to load user")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userResponse(user))
}
