package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_HashPassword_Roundtrip(t *testing.T) {
	req := require.New(t)
	password := "Sup3r-Secret!"

	encoded, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(encoded, "$argon2id$"))

	match, err := ComparePassword(password, encoded)
	req.NoError(err)
	req.True(match)
}

func Test_ComparePassword_Wrong_Password(t *testing.T) {
	req := require.New(t)

	encoded, err := HashPassword("Sup3r-Secret!")
	req.NoError(err)

	match, err := ComparePassword("not-the-one", encoded)
	req.NoError(err)
	req.False(match)
}

func Test_ComparePassword_Garbage_Hash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("whatever", "not-an-encoded-hash")
	req.Error(err)
}

func Test_Hashes_Are_Salted(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("Sup3r-Secret!")
	req.NoError(err)
	second, err := HashPassword("Sup3r-Secret!")
	req.NoError(err)

	req.NotEqual(first, second)
}
