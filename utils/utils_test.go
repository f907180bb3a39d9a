package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", 10*time.Minute, 7*24*time.Hour)

	pair, err := m.IssuePair(7, models.UserTypeConsultant)
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)

	p, err := m.Parse(pair.AccessToken, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(7), p.UserID)
	assert.True(t, p.IsConsultant())

	_, err = m.Parse(pair.AccessToken, TokenRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken, "access token must not refresh")

	p, err = m.Parse(pair.RefreshToken, TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, uint(7), p.UserID)
}

func TestTokenManager_RejectsForeignSecretAndExpiry(t *testing.T) {
	m := NewTokenManager("a", time.Minute, time.Hour)
	other := NewTokenManager("b", time.Minute, time.Hour)

	pair, err := other.IssuePair(1, models.UserTypeUser)
	require.NoError(t, err)
	_, err = m.Parse(pair.AccessToken, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	pair, err = m.IssuePair(1, models.UserTypeUser)
	require.NoError(t, err)
	_, err = m.Parse(pair.AccessToken, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPrincipalFromClaims(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
		ok     bool
	}{
		{"float id", jwt.MapClaims{"id": float64(3), "user_type": "user", "type": "access"}, true},
		{"string id", jwt.MapClaims{"id": "3", "user_type": "user", "type": "access"}, true},
		{"missing id", jwt.MapClaims{"user_type": "user", "type": "access"}, false},
		{"zero id", jwt.MapClaims{"id": float64(0), "user_type": "user", "type": "access"}, false},
		{"bad user type", jwt.MapClaims{"id": float64(3), "user_type": "admin", "type": "access"}, false},
		{"refresh type", jwt.MapClaims{"id": float64(3), "user_type": "user", "type": "refresh"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := PrincipalFromClaims(tc.claims, TokenAccess)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, uint(3), p.UserID)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestVideoTokenIssuer(t *testing.T) {
	issuer := NewVideoTokenIssuer("app-1", "video-secret", 2400*time.Second)
	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

	grant, err := issuer.Issue(12, 5, now)
	require.NoError(t, err)
	assert.Equal(t, "appointment-12", grant.Channel)
	assert.Equal(t, uint32(5), grant.UID)
	assert.Equal(t, now.Add(40*time.Minute), grant.ExpiresAt)

	parsed, err := jwt.Parse(grant.Token, func(*jwt.Token) (interface{}, error) { return []byte("video-secret"), nil },
		jwt.WithoutClaimsValidation())
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "appointment-12", claims["channel"])
	assert.Equal(t, "app-1", claims["app_id"])

	_, err = issuer.Issue(12, 0, now)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "nope"))
}

func TestFormatForMail(t *testing.T) {
	ts := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "Fri, 10 Jan 2025 10:00 UTC", FormatForMail(ts, "UTC"))
	assert.Equal(t, "Fri, 10 Jan 2025 10:00 UTC", FormatForMail(ts, "Not/AZone"))
}
