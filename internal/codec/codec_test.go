package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string     `json:"name"`
	At   time.Time  `json:"at"`
	Opt  *time.Time `json:"opt,omitempty"`
	Tags []string   `json:"tags"`
}

func TestByName(t *testing.T) {
	for name, want := range map[string]string{"": JSONName, "json": JSONName, "cbor": CBORName} {
		c, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, c.Name())
	}

	_, err := ByName("xml")
	assert.Error(t, err)
}

func TestRoundTripKeepsNanoseconds(t *testing.T) {
	in := sample{
		Name: "ticket",
		At:   time.Date(2026, 1, 2, 3, 4, 5, 987654321, time.UTC),
		Tags: []string{"a", "b"},
	}

	for _, c := range []Codec{JSON{}, CBOR()} {
		t.Run(c.Name(), func(t *testing.T) {
			b, err := c.Marshal(in)
			require.NoError(t, err)

			var out sample
			require.NoError(t, c.Unmarshal(b, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestCBORIsDeterministic(t *testing.T) {
	v := map[string]int{"z": 1, "a": 2, "m": 3}

	first, err := CBOR().Marshal(v)
	require.NoError(t, err)
	for range 10 {
		again, err := CBOR().Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
