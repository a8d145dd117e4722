package fsutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCmpIntSigns(t *testing.T) {
	cmp, n, err := ParseCmpInt("+10")
	require.NoError(t, err)
	assert.Equal(t, CmpGreater, cmp)
	assert.Equal(t, int64(10), n)

	cmp, n, err = ParseCmpInt("-10")
	require.NoError(t, err)
	assert.Equal(t, CmpLess, cmp)
	assert.Equal(t, int64(10), n)

	cmp, n, err = ParseCmpInt("10")
	require.NoError(t, err)
	assert.Equal(t, CmpExact, cmp)
	assert.Equal(t, int64(10), n)
}

func TestParseCmpIntInvalid(t *testing.T) {
	_, _, err := ParseCmpInt("abc")
	assert.Error(t, err)
}

func TestParseSizeDefaultUnitIsBlocks(t *testing.T) {
	cmp, bytes, err := ParseSize("3")
	require.NoError(t, err)
	assert.Equal(t, CmpExact, cmp)
	assert.Equal(t, int64(3*512), bytes)
}

func TestParseSizeUnitSuffixes(t *testing.T) {
	cases := []struct {
		arg  string
		want int64
	}{
		{"100c", 100},
		{"1k", 1024},
		{"2M", 2 * 1024 * 1024},
		{"1G", 1024 * 1024 * 1024},
	}
	for _, c := range cases {
		_, got, err := ParseSize(c.arg)
		require.NoError(t, err, c.arg)
		assert.Equal(t, c.want, got, c.arg)
	}
}

func TestParseSizeSign(t *testing.T) {
	cmp, bytes, err := ParseSize("+1k")
	require.NoError(t, err)
	assert.Equal(t, CmpGreater, cmp)
	assert.Equal(t, int64(1024), bytes)
}

func TestParseSizeEmpty(t *testing.T) {
	_, _, err := ParseSize("+")
	assert.Error(t, err)
}

func TestCmpMatch(t *testing.T) {
	assert.True(t, CmpExact.Match(5, 5))
	assert.False(t, CmpExact.Match(5, 6))
	assert.True(t, CmpGreater.Match(6, 5))
	assert.True(t, CmpLess.Match(4, 5))
}
