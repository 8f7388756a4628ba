package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/claimdesk/internal/auth/service"
	"github.com/aussiebroadwan/claimdesk/pkg/authsdk"
	"github.com/aussiebroadwan/claimdesk/pkg/httpx"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
)

type PasswordHandler struct {
	Users     *service.UserService
	SingleUse *service.SingleUseService
	Notifier  service.Notifier

	// ExposeResetToken returns the reset token in the forgot-password
	// response. Only for development and tests.
	ExposeResetToken bool
}

// HandleForgot godoc
//
//	@Summary		Request a password reset
//	@Description	Issue a password reset token for the account and send it through the notifier.
//	@Description	Any earlier reset token of the account stops working.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ForgotPasswordRequest	true	"email"
//	@Success		202		{object}	authsdk.ForgotPasswordResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		404		{object}	authsdk.ErrorResponse	"unknown user"
//	@Failure		500		{object}	authsdk.ErrorResponse
//	@Router			/forgot-password [post].
func (h *PasswordHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.ForgotPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Email == "" {
		writeBadRequest(w, "email is required")
		return
	}

	user, err := h.Users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		writeServiceError(ctx, w, err, "failed to load user")
		return
	}

	token, err := h.SingleUse.IssueResetToken(ctx, user.ID, httpx.ClientIP(r))
	if err != nil {
		writeServiceError(ctx, w, err, "failed to issue reset token")
		return
	}

	if h.Notifier != nil {
		h.Notifier.PasswordReset(ctx, user, token)
	}

	resp := authsdk.ForgotPasswordResponse{Status: "sent"}
	if h.ExposeResetToken {
		resp.ResetToken = token
	}
	httpx.WriteJSON(w, http.StatusAccepted, resp)
}

// HandleReset godoc
//
//	@Summary		Reset a password
//	@Description	Set a new password with a reset token. The token works once.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			request	body	authsdk.ResetPasswordRequest	true	"token, password"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"invalid or expired token, or weak password"
//	@Failure		404	{object}	authsdk.ErrorResponse	"token owner no longer exists"
//	@Failure		500	{object}	authsdk.ErrorResponse
//	@Router			/reset-password [post].
func (h *PasswordHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.ResetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := h.SingleUse.ConsumeResetToken(ctx, req.Token, req.Password); err != nil {
		// The caller only ever sees the generic message.
		if errors.Is(err, service.ErrInvalidOrExpiredToken) {
			slogx.FromContext(ctx).Info("password reset rejected", slog.Any("err", err))
		}
		writeServiceError(ctx, w, err, "failed to reset password")
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
