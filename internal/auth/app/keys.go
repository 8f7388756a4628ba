package app

import (
	"crypto/rand"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/claimdesk/pkg/jwtx"
)

// SigningKeys holds the HS256 signer and verifier built from one secret.
type SigningKeys struct {
	Signer   *jwtx.HS256Signer
	Verifier *jwtx.HS256Verifier
}

// InitSigningKeys builds the token signer and verifier.
//
// Without a configured secret (dev only, enforced by Config.Validate) a
// random secret is generated for this process. Every token becomes invalid
// on restart and instances cannot share tokens.
func InitSigningKeys(cfg Config, logger *slog.Logger) (SigningKeys, error) {
	secret := []byte(cfg.SigningSecret)
	if len(secret) == 0 {
		secret = make([]byte, jwtx.MinSecretSize)
		if _, err := rand.Read(secret); err != nil {
			return SigningKeys{}, fmt.Errorf("generate signing secret: %w", err)
		}
		logger.Warn("AUTH_SIGNING_SECRET not set, using an ephemeral secret; tokens will not survive a restart")
	}

	signer, err := jwtx.NewHS256Signer(secret)
	if err != nil {
		return SigningKeys{}, fmt.Errorf("create signer: %w", err)
	}
	verifier, err := jwtx.NewHS256Verifier(secret, cfg.Issuer)
	if err != nil {
		return SigningKeys{}, fmt.Errorf("create verifier: %w", err)
	}
	return SigningKeys{Signer: signer, Verifier: verifier}, nil
}
