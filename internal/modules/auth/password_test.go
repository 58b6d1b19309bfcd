package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordManager_HashAndVerify(t *testing.T) {
	t.Parallel()

	pm := NewPasswordManager("pepper")

	hash, err := pm.Hash("s3cr3t-pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := pm.Verify("s3cr3t-pass", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordManager_WrongPasswordIsFalseNotError(t *testing.T) {
	t.Parallel()

	pm := NewPasswordManager("pepper")

	hash, err := pm.Hash("correct horse")
	require.NoError(t, err)

	ok, err := pm.Verify("battery staple", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordManager_DifferentPepperFails(t *testing.T) {
	t.Parallel()

	hash, err := NewPasswordManager("pepper-a").Hash("password")
	require.NoError(t, err)

	ok, err := NewPasswordManager("pepper-b").Verify("password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordManager_SaltMakesHashesUnique(t *testing.T) {
	t.Parallel()

	pm := NewPasswordManager("")

	h1, err := pm.Hash("same password")
	require.NoError(t, err)
	h2, err := pm.Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestPasswordManager_MalformedHash(t *testing.T) {
	t.Parallel()

	pm := NewPasswordManager("")

	_, err := pm.Verify("whatever", "not-an-encoded-hash")
	require.Error(t, err)

	_, err = pm.Verify("whatever", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA")
	require.Error(t, err)
}
