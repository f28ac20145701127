package security_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sharebnb/internal/common/security"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2hunter2", hash)

	require.True(t, security.CheckPasswordHash("hunter2hunter2", hash))
	require.False(t, security.CheckPasswordHash("wrongpassword", hash))
	require.False(t, security.CheckPasswordHash("", hash))
}

func TestHashPasswordSalted(t *testing.T) {
	h1, err := security.HashPassword("samepassword")
	require.NoError(t, err)
	h2, err := security.HashPassword("samepassword")
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}
