package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministic(t *testing.T) {
	words := []uint64{1, 2, 3}
	a := New(words)
	b := New(words)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.NextU64(), b.NextU64())
	}
}

func TestDomainSeparation(t *testing.T) {
	a := New([]uint64{1, 2, 3})
	b := New([]uint64{1, 2, 4})
	assert.NotEqual(t, a.NextU64(), b.NextU64())
}

func TestModeModUnsoundPanics(t *testing.T) {
	s := New([]uint64{1})
	big := (uint64(1) << 63) + 7
	assert.Panics(t, func() { s.NextFE(big, ModeMod) })
}

func TestRejectionModeStaysInRange(t *testing.T) {
	s := New([]uint64{42})
	p := (uint64(1) << 63) + 7
	for i := 0; i < 50; i++ {
		fe := s.NextFE(p, ModeRejection)
		assert.Less(t, fe.Uint64(), p)
	}
}

func TestRequiredMode(t *testing.T) {
	assert.Equal(t, ModeMod, RequiredMode(97))
	assert.Equal(t, ModeRejection, RequiredMode((uint64(1)<<63)+1))
}
