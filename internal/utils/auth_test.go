package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPin(t *testing.T) {
	hash, err := HashPin("4821")
	require.NoError(t, err)
	assert.NotEqual(t, "4821", hash)

	assert.True(t, CheckPinHash("4821", hash))
	assert.False(t, CheckPinHash("0000", hash))
	assert.False(t, CheckPinHash("4821", "not-a-hash"))
}

func TestDeviceToken_RoundTrip(t *testing.T) {
	token, err := GenerateDeviceToken("dev-1", "kds", "tenant-1", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseDeviceToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "dev-1", claims["id"])
	assert.Equal(t, "kds", claims["device"])
	assert.Equal(t, "tenant-1", claims["tenant"])
}

func TestDeviceToken_NoSecretMeansNoToken(t *testing.T) {
	token, err := GenerateDeviceToken("dev-1", "kds", "tenant-1", "")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestDeviceToken_WrongSecretRejected(t *testing.T) {
	token, err := GenerateDeviceToken("dev-1", "pos", "tenant-1", "secret")
	require.NoError(t, err)

	_, err = ParseDeviceToken(token, "other-secret")
	assert.Error(t, err)
}
