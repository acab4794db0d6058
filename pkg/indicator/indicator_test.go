package indicator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

func TestLen(t *testing.T) {
	assert.Equal(t, 0, Len(0))
	assert.Equal(t, 1, Len(1))
	assert.Equal(t, 1, Len(8))
	assert.Equal(t, 2, Len(9))
	assert.Equal(t, 40, Len(320))
}

func TestPackBitOrder(t *testing.T) {
	// first column is the most significant bit of the first byte
	assert.Equal(t, []byte{0x80}, Pack([]bool{true}))
	assert.Equal(t, []byte{0x01}, Pack([]bool{false, false, false, false, false, false, false, true}))
	assert.Equal(t, []byte{0x00, 0x80}, Pack([]bool{false, false, false, false, false, false, false, false, true}))
	assert.Equal(t, []byte{0xA0}, Pack([]bool{true, false, true}))
	assert.Empty(t, Pack(nil))
}

func TestAppendPackKeepsPrefix(t *testing.T) {
	out := AppendPack([]byte{0xFF, 0xFF}, []bool{false, true})
	assert.Equal(t, []byte{0xFF, 0xFF, 0x40}, out)
}

func TestPackUnpackRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for n := 0; n <= 320; n++ {
		nulls := make([]bool, n)
		for i := range nulls {
			nulls[i] = rng.Intn(2) == 1
		}

		packed := Pack(nulls)
		require.Len(t, packed, Len(n))

		// trailing bits stay zero
		if rem := n % 8; rem != 0 {
			assert.Zero(t, packed[len(packed)-1]&(0xFF>>uint(rem)), "n=%d", n)
		}

		unpacked, err := Unpack(packed, n)
		require.NoError(t, err)
		assert.Equal(t, nulls, unpacked, "n=%d", n)

		for i := range nulls {
			assert.Equal(t, nulls[i], IsNull(packed, i))
		}
	}
}

func TestUnpackShortBuffer(t *testing.T) {
	_, err := Unpack([]byte{0xFF}, 9)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeRowOverflow))
}
