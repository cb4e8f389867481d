package pedersen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyTreeRoot(t *testing.T) {
	tree := Build(nil)
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, empty(), tree.Root())
}

func TestDeterministicRoot(t *testing.T) {
	payloads := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	t1 := Build(payloads)
	t2 := Build(payloads)
	assert.Equal(t, t1.Root(), t2.Root())
}

func TestRootDiffersFromLeafHash(t *testing.T) {
	payloads := [][]byte{[]byte("a"), []byte("b")}
	tree := Build(payloads)
	plainLeaf := leaf(payloads[0])
	assert.NotEqual(t, plainLeaf, tree.Root(), "sanity: root is not trivially a leaf hash")
}

func TestProveVerifyRoundTrip(t *testing.T) {
	payloads := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	tree := Build(payloads)
	root := tree.Root()

	for i, p := range payloads {
		steps, err := tree.Prove(i)
		require.NoError(t, err)
		assert.True(t, VerifyProof(p, steps, root), "leaf %d", i)
	}
}

func TestVerifyProofRejectsWrongPayload(t *testing.T) {
	payloads := [][]byte{[]byte("a"), []byte("b")}
	tree := Build(payloads)
	steps, err := tree.Prove(0)
	require.NoError(t, err)
	assert.False(t, VerifyProof([]byte("wrong"), steps, tree.Root()))
}

func TestProveOutOfRange(t *testing.T) {
	tree := Build([][]byte{[]byte("a")})
	_, err := tree.Prove(5)
	assert.Error(t, err)
}

func TestOddLeafCountCarriesUp(t *testing.T) {
	tree := Build([][]byte{[]byte("a"), []byte("b"), []byte("c")})
	steps, err := tree.Prove(2)
	require.NoError(t, err)
	assert.Len(t, steps, 1)
}
