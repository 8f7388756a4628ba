/*
Package authsdk is a Go client for the claimdesk authentication service and
holds the wire types the service itself encodes.

# Client vs Session

  - Client covers the public endpoints: registration, login, refresh, the
    password reset flow and health checks.
  - Session carries an access and refresh pair and covers everything that
    needs a bearer. It refreshes the pair shortly before the access token
    expires.

Register or log in to get a Session:

	client := authsdk.NewClient("https://auth.example.com")

	session, err := client.Login(ctx, "pat@example.com", "correct horse battery")
	if err != nil {
		return err
	}

	me, err := session.Me(ctx)

	// Every access and refresh credential is a session.
	sessions, err := session.ListSessions(ctx, "")

	// Staff and admins can invite people; the invitee registers with the
	// returned token and becomes staff.
	inv, err := session.Invite(ctx, "guest@example.com", "")
	guest, err := client.Register(ctx, "guest@example.com", "s3cret pass", inv.InvitationToken)

	// Logout revokes the access credential in use.
	err = session.Logout(ctx)

# Errors

Failed calls return *APIError carrying the HTTP status and the error code
the service wrote:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeInvalidToken {
		// log in again
	}

Single-use token failures (unknown, wrong type or expired) are all reported
as ErrorCodeInvalidOrExpiredToken.
*/
package authsdk
