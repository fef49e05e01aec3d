package firebase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// MintDevToken issues a locally signed HS256 token for one user. Development
// environments only; production verification never consults the shared secret
// unless dev tokens are enabled.
func (v *TokenVerifier) MintDevToken(uid string, ttl time.Duration) (string, error) {
	if !v.allowDevTokens {
		return "", fmt.Errorf("dev tokens are disabled")
	}

	claims := jwt.RegisteredClaims{
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(v.jwtSecret))
}

func (v *TokenVerifier) verifyDevToken(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.jwtSecret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid dev token")
	}

	return claims.Subject, nil
}
