package httpapi

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"stockbook/backend/internal/domain"
)

const tokenIssuer = "stockbook"

var errInvalidCredentials = errors.New("invalid credentials")

// AuthManager authenticates the single store owner and issues HS256 tokens.
type AuthManager struct {
	secret       []byte
	tokenTTL     time.Duration
	username     string
	passwordHash []byte
	now          func() time.Time
}

func NewAuthManager(secret string, tokenTTL time.Duration, username string, password string) (*AuthManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth secret is required")
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, errors.New("owner username and password are required")
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &AuthManager{
		secret:       []byte(secret),
		tokenTTL:     tokenTTL,
		username:     username,
		passwordHash: hash,
		now:          time.Now,
	}, nil
}

func (a *AuthManager) Login(req domain.LoginRequest) (domain.LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username != a.username || strings.TrimSpace(req.Password) == "" {
		return domain.LoginResponse{}, errInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(a.passwordHash, []byte(req.Password)) != nil {
		return domain.LoginResponse{}, errInvalidCredentials
	}

	expiresAt := a.now().UTC().Add(a.tokenTTL)
	token, err := a.sign(username, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	return domain.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &jwtlib.RegisteredClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(tokenIssuer),
		jwtlib.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub != a.username {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{Username: sub}, nil
}

func (a *AuthManager) sign(username string, expiresAt time.Time) (string, error) {
	claims := jwtlib.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwtlib.NewNumericDate(a.now().UTC()),
		ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		Issuer:    tokenIssuer,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}
