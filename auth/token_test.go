package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Token_Roundtrip(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", time.Hour)
	userID := uuid.NewString()

	token, err := manager.Generate(userID, "alice")
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := manager.Validate(token)
	req.NoError(err)
	req.Equal(userID, claims.UserID)
	req.Equal("alice", claims.Username)
}

func Test_Token_Wrong_Secret_Is_Rejected(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", time.Hour)

	token, err := manager.Generate(uuid.NewString(), "alice")
	req.NoError(err)

	other := NewTokenManager("another-secret", time.Hour)
	_, err = other.Validate(token)
	req.Error(err)
}

func Test_Expired_Token_Is_Rejected(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", -time.Minute)

	token, err := manager.Generate(uuid.NewString(), "alice")
	req.NoError(err)

	_, err = manager.Validate(token)
	req.Error(err)
}

func Test_Garbage_Token_Is_Rejected(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", time.Hour)

	_, err := manager.Validate("this.is.garbage")
	req.Error(err)
}
