package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingToken はトークンが空の場合のエラー。
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken は署名・発行者・有効期限の検証に失敗した場合のエラー。
var ErrInvalidToken = errors.New("invalid bearer token")

// TokenConfig はアクセストークンの署名設定。
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// TokenIssuer はHS256署名のアクセストークンを発行・検証する。
// トークンのsubjectにはユーザーIDを格納する。
type TokenIssuer struct {
	config TokenConfig

	// Now はトークンの発行時刻と検証時刻。テストで差し替える。
	Now func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(config TokenConfig) *TokenIssuer {
	return &TokenIssuer{config: config, Now: time.Now}
}

// Issue はユーザーIDを含むアクセストークンと有効期限を返す。
func (t *TokenIssuer) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("user ID is required")
	}

	now := t.Now()
	expiresAt := now.Add(t.config.TTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    t.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse はトークンを検証し、ユーザーIDを返す。
func (t *TokenIssuer) Parse(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return []byte(t.config.Secret), nil
	},
		jwt.WithIssuer(t.config.Issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
