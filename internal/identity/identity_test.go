package identity

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")

	pub, err := New(path, "correct horse battery staple")
	require.NoError(t, err)

	loadedPub, loadedPriv, err := Load(path, "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, pub, loadedPub)
	assert.Equal(t, pub, loadedPriv.Public())
}

func TestLoadWithWrongPassphraseFailsOrProducesDifferentKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")

	pub, err := New(path, "right passphrase")
	require.NoError(t, err)

	loadedPub, _, err := Load(path, "wrong passphrase")
	if err != nil {
		return
	}
	assert.NotEqual(t, pub, loadedPub)
}
