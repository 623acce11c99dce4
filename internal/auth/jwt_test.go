package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTValidatesArguments(t *testing.T) {
	_, err := NewJWT(" ", time.Hour, nil)
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)

	_, err = NewJWT("secret", 0, nil)
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)

	issuer, err := NewJWT("secret", time.Hour, nil)
	require.NoError(t, err)
	assert.NotNil(t, issuer.clock)
}

func TestGenerateAndVerifyJWT(t *testing.T) {
	clk := testclock.NewClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	issuer, err := NewJWT("test-secret", 7*24*time.Hour, clk)
	require.NoError(t, err)

	token, err := issuer.GenerateJWT(42, "a@b.com", "alice")
	require.NoError(t, err)

	claims, err := issuer.VerifyJWT(token)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, clk.Now().Add(7*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestVerifyJWTRejectsExpiredToken(t *testing.T) {
	clk := testclock.NewClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	issuer, err := NewJWT("test-secret", time.Hour, clk)
	require.NoError(t, err)

	token, err := issuer.GenerateJWT(1, "a@b.com", "alice")
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)

	_, err = issuer.VerifyJWT(token)
	assert.True(t, errors.Is(err, errors.Unauthorized), "got %v", err)
}

func TestVerifyJWTRejectsForeignSignature(t *testing.T) {
	issuer, err := NewJWT("test-secret", time.Hour, nil)
	require.NoError(t, err)
	other, err := NewJWT("other-secret", time.Hour, nil)
	require.NoError(t, err)

	token, err := other.GenerateJWT(1, "a@b.com", "alice")
	require.NoError(t, err)

	_, err = issuer.VerifyJWT(token)
	assert.True(t, errors.Is(err, errors.Unauthorized), "got %v", err)

	_, err = issuer.VerifyJWT("not-a-token")
	assert.True(t, errors.Is(err, errors.Unauthorized), "got %v", err)
}

func TestVerifyJWTRejectsNoneAlgorithm(t *testing.T) {
	issuer, err := NewJWT("test-secret", time.Hour, nil)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.VerifyJWT(token)
	assert.True(t, errors.Is(err, errors.Unauthorized), "got %v", err)
}

func TestClaimsUserIDRejectsBadSubject(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}
	_, err := claims.UserID()
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
}

func TestProfileFromUserInfo(t *testing.T) {
	profile, err := profileFromUserInfo("123", " Ada@Example.com ", "", "")
	require.NoError(t, err)
	assert.Equal(t, GoogleProfile{ProviderID: "123", Email: "ada@example.com", Username: "ada"}, profile)

	profile, err = profileFromUserInfo("123", "ada@example.com", "Ada Lovelace", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", profile.Username)

	_, err = profileFromUserInfo("", "ada@example.com", "Ada", "")
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
}
