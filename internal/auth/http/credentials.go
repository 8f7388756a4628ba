package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/internal/auth/service"
	"github.com/aussiebroadwan/claimdesk/pkg/authsdk"
	"github.com/aussiebroadwan/claimdesk/pkg/devicex"
	"github.com/aussiebroadwan/claimdesk/pkg/httpx"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
)

// CredentialsHandler serves the endpoints that hand out token pairs.
type CredentialsHandler struct {
	Users    *service.UserService
	Issuer   *service.IssuerService
	Verifier *service.VerifierService
	Devices  *devicex.Fingerprinter
	Notifier service.Notifier
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Create an account and return a token pair for the calling device.
//	@Description	A valid invitation token for the same email registers the user as staff.
//	@Tags			Credentials
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"email, password, invitation_token"
//	@Success		201		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid input or invitation"
//	@Failure		409		{object}	authsdk.ErrorResponse	"email taken"
//	@Failure		500		{object}	authsdk.ErrorResponse
//	@Router			/register [post].
func (h *CredentialsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	user, err := h.Users.Register(ctx, req.Email, req.Password, req.InvitationToken)
	if err != nil {
		writeServiceError(ctx, w, err, "failed to register user")
		return
	}

	pair, err := h.Issuer.IssuePair(ctx, user, requestDevice(r, h.Devices))
	if err != nil {
		writeServiceError(ctx, w, err, "failed to issue credentials")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, tokenResponse(pair))
}

// HandleLogin godoc
//
//	@Summary		Log in
//	@Description	Exchange an email and password for a token pair. Logins from a device not seen
//	@Description	before for the user trigger a security notification and set new_device.
//	@Tags			Credentials
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"email, password"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid credentials"
//	@Failure		500		{object}	authsdk.ErrorResponse
//	@Router			/login [post].
func (h *CredentialsHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	user, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(ctx, w, err, "failed to authenticate")
		return
	}
	ctx = slogx.WithUserID(ctx, user.ID)

	device := requestDevice(r, h.Devices)

	// Novelty has to be decided before this login adds its own credentials.
	isNew, err := h.Issuer.IsNewDevice(ctx, user, device)
	if err != nil {
		writeServiceError(ctx, w, err, "failed to check device")
		return
	}

	pair, err := h.Issuer.IssuePair(ctx, user, device)
	if err != nil {
		writeServiceError(ctx, w, err, "failed to issue credentials")
		return
	}

	if isNew && h.Notifier != nil {
		h.Notifier.NewDeviceLogin(ctx, user, device)
	}

	resp := tokenResponse(pair)
	resp.NewDevice = isNew
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRefresh godoc
//
//	@Summary		Refresh tokens
//	@Description	Exchange a refresh token for a new token pair tagged with the requesting device.
//	@Description	Whether the presented refresh token stays valid depends on the rotation policy.
//	@Tags			Credentials
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"token"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid, expired or revoked refresh token"
//	@Failure		404		{object}	authsdk.ErrorResponse	"token owner no longer exists"
//	@Failure		500		{object}	authsdk.ErrorResponse
//	@Router			/refresh_token [post].
func (h *CredentialsHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Token == "" {
		writeBadRequest(w, "token is required")
		return
	}

	cred, _, err := h.Verifier.VerifyRefresh(ctx, req.Token)
	if err != nil {
		writeServiceError(ctx, w, err, "failed to verify refresh token")
		return
	}

	user, err := h.Users.GetUserByID(ctx, cred.OwnerID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			log.Warn("refresh token owner missing", slog.String("owner_id", cred.OwnerID))
		}
		writeServiceError(ctx, w, err, "failed to load refresh token owner")
		return
	}

	pair, err := h.Issuer.Refresh(ctx, cred, user, requestDevice(r, h.Devices))
	if err != nil {
		writeServiceError(ctx, w, err, "failed to refresh credentials")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}

// requestDevice fingerprints the caller. A nil fingerprinter skips
// geolocation.
func requestDevice(r *http.Request, fp *devicex.Fingerprinter) domain.Device {
	if fp == nil {
		fp = &devicex.Fingerprinter{}
	}
	return service.DeviceFromFingerprint(fp.Fingerprint(r.Context(), httpx.ClientIP(r), r.UserAgent()), "")
}
