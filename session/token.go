package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// PrincipalFromToken extracts the principal id (the "sub" claim) from an
// access token. The token is not verified here: verification is the issuing
// server's job, and the store rejects requests whose token does not match
// the rows they touch. The claim is only used to scope the local ledger and
// the realtime channel.
func PrincipalFromToken(tokenStr string) (string, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("parse access token: %w", err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("read subject claim: %w", err)
	}
	if sub == "" {
		return "", errors.New("access token has no subject claim")
	}
	return sub, nil
}
