package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// identity is the authenticated principal carried by a verified access token.
type identity struct {
	ID    string
	Email string
}

type tokenClaims struct {
	UserID  string `json:"id"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// Single-purpose tokens carry a purpose claim so they can never be presented
// as session credentials.
const purposeVerifyEmail = "verify-email"

// Verification failures are all treated as "not authenticated" by callers,
// but stay distinguishable for logging and tests.
var (
	errTokenMalformed     = errors.New("token is malformed")
	errTokenSignature     = errors.New("token signature is invalid")
	errTokenExpired       = errors.New("token has expired")
	errTokenMissingClaims = errors.New("token is missing required claims")
	errTokenWrongPurpose  = errors.New("token purpose is not valid for this operation")

	errMissingSecret = errors.New("jwt secret is not configured")
)

func mintAccessToken(id identity, ttl time.Duration, secret []byte) (string, error) {
	return mintToken(tokenClaims{UserID: id.ID, Email: id.Email}, ttl, secret)
}

// mintRefreshToken signs a token carrying only the user id. Because it has no
// email claim it can never pass verifyAccessToken, so a refresh token cannot
// authorize a data operation.
func mintRefreshToken(userID string, ttl time.Duration, secret []byte) (string, error) {
	return mintToken(tokenClaims{UserID: userID}, ttl, secret)
}

// mintVerificationToken signs the token embedded in a mailed verification
// link. Its purpose claim (and lack of an email claim) keeps it from passing
// access- or refresh-token verification.
func mintVerificationToken(userID string, ttl time.Duration, secret []byte) (string, error) {
	return mintToken(tokenClaims{UserID: userID, Purpose: purposeVerifyEmail}, ttl, secret)
}

func mintToken(claims tokenClaims, ttl time.Duration, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errMissingSecret
	}
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func verifyAccessToken(tokenStr string, secret []byte) (*identity, error) {
	claims, err := parseToken(tokenStr, secret)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, errTokenWrongPurpose
	}
	if claims.UserID == "" || claims.Email == "" {
		return nil, errTokenMissingClaims
	}
	return &identity{ID: claims.UserID, Email: claims.Email}, nil
}

func verifyRefreshToken(tokenStr string, secret []byte) (string, error) {
	claims, err := parseToken(tokenStr, secret)
	if err != nil {
		return "", err
	}
	if claims.Purpose != "" {
		return "", errTokenWrongPurpose
	}
	if claims.UserID == "" {
		return "", errTokenMissingClaims
	}
	return claims.UserID, nil
}

// verifyVerificationToken accepts only tokens minted for a mailed
// verification link and returns the user id they identify.
func verifyVerificationToken(tokenStr string, secret []byte) (string, error) {
	claims, err := parseToken(tokenStr, secret)
	if err != nil {
		return "", err
	}
	if claims.Purpose != purposeVerifyEmail {
		return "", errTokenWrongPurpose
	}
	if claims.UserID == "" {
		return "", errTokenMissingClaims
	}
	return claims.UserID, nil
}

func parseToken(tokenStr string, secret []byte) (*tokenClaims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	switch {
	case err == nil && token.Valid:
		return &claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, errTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, errTokenSignature
	default:
		return nil, errTokenMalformed
	}
}
