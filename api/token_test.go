package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestAccessTokenRoundTrip(t *testing.T) {
	id := identity{ID: "user-123", Email: "a@b.com"}
	token, err := mintAccessToken(id, time.Hour, testSecret)
	require.NoError(t, err)

	got, err := verifyAccessToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, id, *got)
}

func TestAccessTokenExpiry(t *testing.T) {
	token, err := mintAccessToken(identity{ID: "user-123", Email: "a@b.com"}, -time.Second, testSecret)
	require.NoError(t, err)

	_, err = verifyAccessToken(token, testSecret)
	require.ErrorIs(t, err, errTokenExpired)
}

func TestAccessTokenTamperedSignature(t *testing.T) {
	token, err := mintAccessToken(identity{ID: "user-123", Email: "a@b.com"}, time.Hour, testSecret)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// Flip bit 5 of each base64url group in turn. That bit always maps to a
	// real signature bit, unlike the unused padding bits at the tail of the
	// final group.
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for i := 0; i < len(parts[2]); i++ {
		sig := []byte(parts[2])
		sig[i] = alphabet[strings.IndexByte(alphabet, sig[i])^32]
		tampered := parts[0] + "." + parts[1] + "." + string(sig)

		_, err = verifyAccessToken(tampered, testSecret)
		require.ErrorIs(t, err, errTokenSignature, "signature byte %d", i)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := mintAccessToken(identity{ID: "user-123", Email: "a@b.com"}, time.Hour, testSecret)
	require.NoError(t, err)

	_, err = verifyAccessToken(token, []byte("other-secret"))
	require.ErrorIs(t, err, errTokenSignature)
}

func TestAccessTokenMalformed(t *testing.T) {
	for _, tokenStr := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, err := verifyAccessToken(tokenStr, testSecret)
		require.ErrorIs(t, err, errTokenMalformed, "token %q", tokenStr)
	}
}

func TestRefreshTokenCannotAuthorize(t *testing.T) {
	// A refresh token has no email claim, so access-token verification must
	// reject it even though the signature and expiry are fine.
	token, err := mintRefreshToken("user-123", time.Hour, testSecret)
	require.NoError(t, err)

	_, err = verifyAccessToken(token, testSecret)
	require.ErrorIs(t, err, errTokenMissingClaims)

	userID, err := verifyRefreshToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, "user-123", userID)
}

func TestVerificationTokenCannotAuthorize(t *testing.T) {
	// The token in a mailed verification link must never act as a session
	// credential, otherwise an unverified account could skip login entirely.
	token, err := mintVerificationToken("user-123", time.Hour, testSecret)
	require.NoError(t, err)

	_, err = verifyAccessToken(token, testSecret)
	require.ErrorIs(t, err, errTokenWrongPurpose)

	_, err = verifyRefreshToken(token, testSecret)
	require.ErrorIs(t, err, errTokenWrongPurpose)

	userID, err := verifyVerificationToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, "user-123", userID)
}

func TestVerificationRejectsSessionTokens(t *testing.T) {
	access, err := mintAccessToken(identity{ID: "user-123", Email: "a@b.com"}, time.Hour, testSecret)
	require.NoError(t, err)
	_, err = verifyVerificationToken(access, testSecret)
	require.ErrorIs(t, err, errTokenWrongPurpose)

	refresh, err := mintRefreshToken("user-123", time.Hour, testSecret)
	require.NoError(t, err)
	_, err = verifyVerificationToken(refresh, testSecret)
	require.ErrorIs(t, err, errTokenWrongPurpose)
}

func TestMintTokenMissingSecret(t *testing.T) {
	_, err := mintAccessToken(identity{ID: "user-123", Email: "a@b.com"}, time.Hour, nil)
	require.ErrorIs(t, err, errMissingSecret)
}
