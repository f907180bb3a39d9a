package utils

import (
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type VideoGrant struct {
	AppID     string    `json:"app_id"`
	Channel   string    `json:"channel"`
	Token     string    `json:"token"`
	UID       uint32    `json:"uid"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VideoTokenIssuer mints short-lived join credentials for the external video provider.
type VideoTokenIssuer struct {
	appID  string
	secret []byte
	ttl    time.Duration
}

func NewVideoTokenIssuer(appID, secret string, ttl time.Duration) *VideoTokenIssuer {
	return &VideoTokenIssuer{appID: appID, secret: []byte(secret), ttl: ttl}
}

func VideoChannel(appointmentID uint) string {
	return fmt.Sprintf("appointment-%d", appointmentID)
}

func (v *VideoTokenIssuer) Issue(appointmentID, userID uint, now time.Time) (*VideoGrant, error) {
	if userID == 0 || uint64(userID) > math.MaxUint32 {
		return nil, fmt.Errorf("uid %d does not fit in uint32", userID)
	}
	uid := uint32(userID)
	channel := VideoChannel(appointmentID)
	expires := now.Add(v.ttl).UTC()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"app_id":  v.appID,
		"channel": channel,
		"uid":     uid,
		"iat":     now.Unix(),
		"exp":     expires.Unix(),
	}).SignedString(v.secret)
	if err != nil {
		return nil, err
	}

	return &VideoGrant{
		AppID:     v.appID,
		Channel:   channel,
		Token:     token,
		UID:       uid,
		ExpiresAt: expires,
	}, nil
}
