package reference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloRef = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestFromHexRoundTrip(t *testing.T) {
	ref, err := FromHex(helloRef)
	require.NoError(t, err)
	assert.Equal(t, helloRef, ref.String())

	parsed, err := FromHex(ref.String())
	require.NoError(t, err)
	assert.Equal(t, ref, parsed)
}

func TestFromHexBoundaries(t *testing.T) {
	cases := map[string]string{
		"too short (63)":      helloRef[:63],
		"too long (65)":       helloRef + "a",
		"uppercase":           strings.ToUpper(helloRef),
		"non-hex character":   "zz" + helloRef[2:],
		"empty string":        "",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromHex(input)
			require.Error(t, err)
			var invalid *InvalidReferenceError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

func TestFromBytesMatchesKnownDigest(t *testing.T) {
	ref := FromBytes([]byte("hello"))
	assert.Equal(t, helloRef, ref.String())
}

func TestDigesterIncrementalMatchesFromBytes(t *testing.T) {
	d := NewDigester()
	_, err := d.Write([]byte("hel"))
	require.NoError(t, err)
	_, err = d.Write([]byte("lo"))
	require.NoError(t, err)

	assert.Equal(t, FromBytes([]byte("hello")), d.Reference())
}

func TestFromReader(t *testing.T) {
	ref, err := FromReader(strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, helloRef, ref.String())
}

func TestEmptyContentDigest(t *testing.T) {
	ref := FromBytes(nil)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ref.String())
}
