package payment

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// serviceTokenTTL bounds how long a minted facilitator service token is
// valid; short-lived so a leaked token stops working quickly.
const serviceTokenTTL = 2 * time.Minute

// ServiceClaims is the JWT payload FacilitatorClient signs to authenticate
// itself to the facilitator, distinct from and never substituting for the
// per-request x402 payment payload: it asserts "this call came from
// agentgate", not "this call is already paid for" (spec.md §9 forbids any
// header from bypassing verify/settle).
type ServiceClaims struct {
	jwt.RegisteredClaims
	// TokenID is a server-generated UUID identifying this signing event, so
	// the facilitator can log or dedupe replayed service tokens.
	TokenID string `json:"tid"`
}

// ServiceTokenSigner mints short-lived HMAC-signed bearer tokens FacilitatorClient
// presents on Verify/Settle calls in place of (or alongside) a static API key,
// grounded on the umbra-gateway batch-token signer's IssueToken shape.
type ServiceTokenSigner struct {
	secret []byte
	issuer string
}

// NewServiceTokenSigner builds a signer; secret is the facilitator-shared HMAC
// key. A nil/empty secret disables signing — callers fall back to a static
// bearer token.
func NewServiceTokenSigner(secret []byte, issuer string) *ServiceTokenSigner {
	if issuer == "" {
		issuer = "agentgate"
	}
	return &ServiceTokenSigner{secret: secret, issuer: issuer}
}

// Mint signs a fresh token with a unique jti (so the facilitator can dedupe
// or log replayed tokens) and a short expiry.
func (s *ServiceTokenSigner) Mint() (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("payment: service token signer has no secret configured")
	}
	now := time.Now()
	claims := &ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(serviceTokenTTL)),
		},
		TokenID: uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("payment: signing facilitator service token: %w", err)
	}
	return signed, nil
}
