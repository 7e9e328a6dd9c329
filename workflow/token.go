package workflow

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer is the fixed issuer claim the workflow service checks on
// every signed request.
const tokenIssuer = "fleetparts-backend"

// tokenTTL keeps webhook tokens short-lived; each call mints a fresh one.
const tokenTTL = 5 * time.Minute

// signToken mints the short-lived bearer token sent with every webhook
// call.
func signToken(secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
