package jwt

import (
	"crypto/rsa"
	"net/http"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/eventhive/eh-registration/pkg/errors"
	"github.com/eventhive/eh-registration/pkg/status"
)

type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	gojwt.RegisteredClaims
}

type JSONWebToken struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewJSONWebToken(privateKeyPEM, publicKeyPEM []byte) *JSONWebToken {
	j := &JSONWebToken{}

	if len(privateKeyPEM) > 0 {
		if key, err := gojwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM); err == nil {
			j.privateKey = key
		}
	}
	if len(publicKeyPEM) > 0 {
		if key, err := gojwt.ParseRSAPublicKeyFromPEM(publicKeyPEM); err == nil {
			j.publicKey = key
		}
	}

	return j
}

func (j *JSONWebToken) Sign(claims Claims, expiresIn time.Duration) (string, error) {
	if j.privateKey == nil {
		return "", errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "signing key is not configured")
	}

	now := time.Now()
	claims.IssuedAt = gojwt.NewNumericDate(now)
	claims.ExpiresAt = gojwt.NewNumericDate(now.Add(expiresIn))

	token := gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims)

	signed, err := token.SignedString(j.privateKey)
	if err != nil {
		return "", errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "unable to sign token")
	}

	return signed, nil
}

func (j *JSONWebToken) Parse(tokenString string) (Claims, error) {
	if j.publicKey == nil {
		return Claims{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "verification key is not configured")
	}

	var claims Claims

	token, err := gojwt.ParseWithClaims(tokenString, &claims, func(t *gojwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodRSA); !ok {
			return nil, gojwt.ErrSignatureInvalid
		}
		return j.publicKey, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "invalid or expired token")
	}

	return claims, nil
}
