package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	require.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	require.Equal(t, "go-json", c.Name())

	_, ok = ByName("msgpack")
	require.False(t, ok)
}

func TestCodecsAgree(t *testing.T) {
	type payload struct {
		Name   string    `json:"name"`
		Values []float64 `json:"values"`
	}
	in := payload{Name: "counts", Values: []float64{1, 0, 3.5}}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		data, err := c.Marshal(in)
		require.NoError(t, err)

		var out payload
		require.NoError(t, c.Unmarshal(data, &out))
		require.Equal(t, in, out, "codec %s", c.Name())
	}
}
