package merkle

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(s string) [32]byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	var out [32]byte
	copy(out[:], b)
	return out
}

func TestEmptyCapsuleRoot(t *testing.T) {
	c := Build(nil)
	assert.Equal(t, mustHex("050d3c50cc2acaa87f3c7ea1d2f285fa9a109edc5ccbc8b6a4bb1f678e97120a"), c.Root())
	assert.Equal(t, 0, c.Len())
}

func TestSingleLeafRootIsLeafHash(t *testing.T) {
	c := Build([][]byte{[]byte("a")})
	assert.Equal(t, mustHex("dcdc5d06b181db5a3fc9dab157c82cbee8d5001b7ce74af195abffee6c05ef6f"), c.Root())
}

func TestTwoLeafRoot(t *testing.T) {
	c := Build([][]byte{[]byte("a"), []byte("b")})
	assert.Equal(t, mustHex("34833d2ecaa647bdb638a0353fb63fab38537df4d8b300debbea9fb326bcc473"), c.Root())
}

func TestOddLeafCountCarriesUpWithoutDuplication(t *testing.T) {
	c := Build([][]byte{[]byte("a"), []byte("b"), []byte("c")})
	assert.Equal(t, mustHex("f0579b75909ec21148a006f85905c24ad8aa23dbc61a8948f64a1d9a0fadf3fc"), c.Root())
}

func TestProveVerifyRoundTrip(t *testing.T) {
	leaves := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	c := Build(leaves)

	for i, payload := range leaves {
		steps, err := c.Prove(i)
		require.NoError(t, err)
		assert.True(t, VerifyProof(payload, steps, c.Root()), "leaf %d should verify", i)
	}
}

func TestProveCarriedNodeHasShorterPath(t *testing.T) {
	leaves := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	c := Build(leaves)

	steps, err := c.Prove(2)
	require.NoError(t, err)
	// "c" has no sibling at level 0 (it was carried up), only one step at
	// level 1 against pair(a,b).
	assert.Len(t, steps, 1)
	assert.Equal(t, SideLeft, steps[0].Side)
}

func TestVerifyProofRejectsWrongPayload(t *testing.T) {
	leaves := [][]byte{[]byte("a"), []byte("b")}
	c := Build(leaves)

	steps, err := c.Prove(0)
	require.NoError(t, err)
	assert.False(t, VerifyProof([]byte("tampered"), steps, c.Root()))
}

func TestProveOutOfRange(t *testing.T) {
	c := Build([][]byte{[]byte("a")})
	_, err := c.Prove(5)
	assert.Error(t, err)
}

func TestDeterministic(t *testing.T) {
	leaves := [][]byte{[]byte("x"), []byte("y"), []byte("z"), []byte("w")}
	a := Build(leaves)
	b := Build(leaves)
	assert.Equal(t, a.Root(), b.Root())
}

func TestOrderSensitive(t *testing.T) {
	a := Build([][]byte{[]byte("x"), []byte("y")})
	b := Build([][]byte{[]byte("y"), []byte("x")})
	assert.NotEqual(t, a.Root(), b.Root())
}
