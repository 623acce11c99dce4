package auth

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"
	"github.com/juju/errors"
)

// Claims is the bearer token payload.
type Claims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a user id.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.NotValidf("token subject %q", c.Subject)
	}
	return uint(id), nil
}

// JWT signs and verifies HS256 bearer tokens.
type JWT struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewJWT(secret string, ttl time.Duration, clk clock.Clock) (*JWT, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.NotValidf("empty JWT secret")
	}
	if ttl <= 0 {
		return nil, errors.NotValidf("token lifetime %v", ttl)
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &JWT{secret: []byte(secret), ttl: ttl, clock: clk}, nil
}

func (j *JWT) GenerateJWT(userID uint, email, username string) (string, error) {
	now := j.clock.Now()

	claims := Claims{
		Email:    email,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", errors.Annotate(err, "signing token")
	}
	return signed, nil
}

func (j *JWT) VerifyJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.clock.Now), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return nil, errors.Unauthorizedf("invalid or expired token")
	}

	return claims, nil
}
