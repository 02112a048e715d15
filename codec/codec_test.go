package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name    string    `json:"name" yaml:"name"`
	Values  []float32 `json:"values" yaml:"values,flow"`
	Nested  []uint32  `json:"nested" yaml:"nested"`
	Skipped int       `json:"skipped" yaml:"skipped"`
}

func TestRoundTrip(t *testing.T) {
	in := payload{
		Name:   "tree",
		Values: []float32{0.25, 1.5},
		Nested: []uint32{1, 2, 3},
	}

	for _, c := range []Codec{JSON{}, YAML{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out payload
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("yaml")
	require.True(t, ok)
	assert.Equal(t, "yaml", c.Name())

	_, ok = ByName("xml")
	assert.False(t, ok)
}

func TestUnmarshalInvalid(t *testing.T) {
	var out payload
	assert.Error(t, JSON{}.Unmarshal([]byte("{"), &out))
	assert.Error(t, YAML{}.Unmarshal([]byte(":\n:"), &out))
}

func TestMustMarshal(t *testing.T) {
	data := MustMarshal(nil, payload{Name: "x"})
	assert.NotEmpty(t, data)

	assert.Panics(t, func() {
		MustMarshal(JSON{}, func() {})
	})
}

func TestDefault(t *testing.T) {
	assert.Equal(t, "yaml", Default.Name())
}
