package utils

import (
	"dms/src/models"
	"dms/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("s3cret-pass")
	assert.Nil(t, err)
	assert.NotEqual(t, "s3cret-pass", hashed)
	assert.True(t, ComparePassword(hashed, "s3cret-pass"))
	assert.False(t, ComparePassword(hashed, "wrong"))
}

func TestJWTRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	user := models.User{Identifier: "u-1", Name: "Test User", Role: types.ROLE_STAFF}
	now := time.Now()
	signed, claims, err := GenerateJWT(&user, now)
	assert.Nil(t, err)
	assert.NotEmpty(t, signed)
	assert.NotEmpty(t, claims.ID)

	parsed, err := ParseJWT(signed)
	assert.Nil(t, err)
	assert.Equal(t, "u-1", parsed.UserID)
	assert.Equal(t, types.ROLE_STAFF, parsed.Role)
	assert.Equal(t, claims.ID, parsed.ID)
	assert.WithinDuration(t, now.Add(time.Hour), parsed.ExpiresAt.Time, time.Second)
}

func TestSessionLifecycle(t *testing.T) {
	now := time.Now()
	expiry := now.Add(time.Hour)
	user := models.User{SessionToken: "tok", SessionStart: &now, SessionExpiry: &expiry}
	assert.True(t, user.HasLiveSession(now))
	assert.False(t, user.HasLiveSession(expiry.Add(time.Minute)))

	user.SessionToken = ""
	assert.False(t, user.HasLiveSession(now))
}
