package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrEmptySecret  = errors.New("jwt secret is required")
)

// Identity is what a verified token maps to.
type Identity struct {
	PlayerID    string
	DisplayName string
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// IssueGuest mints a fresh player id and a token for it.
func (i *Issuer) IssueGuest(displayName string) (string, Identity, error) {
	identity := Identity{PlayerID: uuid.NewString(), DisplayName: displayName}
	token, err := i.Issue(identity)
	if err != nil {
		return "", Identity{}, err
	}
	return token, identity, nil
}

func (i *Issuer) Issue(identity Identity) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub":  identity.PlayerID,
		"name": identity.DisplayName,
		"iat":  now.Unix(),
		"exp":  now.Add(i.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) Verify(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	playerID, _ := claims["sub"].(string)
	if playerID == "" {
		return Identity{}, ErrInvalidToken
	}
	name, _ := claims["name"].(string)
	return Identity{PlayerID: playerID, DisplayName: name}, nil
}
