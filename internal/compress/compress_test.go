package compress

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("cell barcode AAACGG expression "), 512)

	for _, typ := range []Type{None, LZ4, ZSTD} {
		enc, err := Encode(compressible, typ)
		require.NoError(t, err)

		dec, err := Decode(enc)
		require.NoError(t, err)
		require.Equal(t, compressible, dec)

		if typ != None {
			require.Less(t, len(enc), len(compressible))
		}
	}
}

func TestIncompressibleFallsBackToNone(t *testing.T) {
	data := make([]byte, 4096)
	_, err := rand.Read(data)
	require.NoError(t, err)

	enc, err := Encode(data, LZ4)
	require.NoError(t, err)
	require.Equal(t, byte(None), enc[0])

	dec, err := Decode(enc)
	require.NoError(t, err)
	require.Equal(t, data, dec)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode(nil)
	require.Error(t, err)

	_, err = Decode([]byte{byte(ZSTD), 1, 2})
	require.Error(t, err)

	_, err = Decode([]byte{42, 0, 0, 0, 0, 1})
	require.Error(t, err)
}

func TestEmptyPayload(t *testing.T) {
	enc, err := Encode(nil, ZSTD)
	require.NoError(t, err)

	dec, err := Decode(enc)
	require.NoError(t, err)
	require.Empty(t, dec)
}
