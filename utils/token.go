package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/meinhoongagan/healthcoach-api/models"
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// TokenManager signs and verifies HS256 bearer tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *TokenManager) Secret() []byte { return m.secret }

func (m *TokenManager) IssuePair(userID uint, userType models.UserType) (*TokenPair, error) {
	access, err := m.sign(userID, userType, TokenAccess, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(userID, userType, TokenRefresh, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

func (m *TokenManager) sign(userID uint, userType models.UserType, typ TokenType, ttl time.Duration) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"id":        userID,
		"user_type": string(userType),
		"type":      string(typ),
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies tokenString and requires its type claim to equal want.
func (m *TokenManager) Parse(tokenString string, want TokenType) (models.Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return models.Principal{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Principal{}, ErrInvalidToken
	}
	return PrincipalFromClaims(claims, want)
}

// PrincipalFromClaims reads id and user_type after checking the token type.
func PrincipalFromClaims(claims jwt.MapClaims, want TokenType) (models.Principal, error) {
	if typ, _ := claims["type"].(string); TokenType(typ) != want {
		return models.Principal{}, fmt.Errorf("%w: expected %s token", ErrInvalidToken, want)
	}
	userID, err := extractUserID(claims)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	userType, _ := claims["user_type"].(string)
	switch models.UserType(userType) {
	case models.UserTypeUser, models.UserTypeConsultant:
	default:
		return models.Principal{}, fmt.Errorf("%w: bad user_type", ErrInvalidToken)
	}
	return models.Principal{UserID: userID, UserType: models.UserType(userType)}, nil
}

// extractUserID handles the numeric forms the id claim may decode to.
func extractUserID(claims jwt.MapClaims) (uint, error) {
	switch v := claims["id"].(type) {
	case nil:
		return 0, errors.New("no id in claims")
	case float64:
		if v <= 0 {
			return 0, errors.New("non-positive id")
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil || parsed == 0 {
			return 0, fmt.Errorf("could not parse id %q", v)
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported id type: %T", v)
	}
}
