package java

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameOf(t *testing.T) {
	assert.Equal(t, "J2SE-1.5", NameOf(5))
	assert.Equal(t, "JavaSE-1.6", NameOf(6))
	assert.Equal(t, "JavaSE-1.8", NameOf(8))
	assert.Equal(t, "JavaSE-9", NameOf(9))
	assert.Equal(t, "JavaSE-21", NameOf(21))
}

func TestVersionOf_RoundTrip(t *testing.T) {
	for _, v := range []int{0, 5, 6, 8, 9, 11, 17, 21} {
		got, err := VersionOf(NameOf(v))
		require.NoError(t, err, "version %d", v)
		assert.Equal(t, v, got)
	}
}

func TestVersionOf_Malformed(t *testing.T) {
	for _, name := range []string{"", "JavaSE-", "JavaSE-abc", "Java-17", "JavaSE-1.x", "JavaSE--1"} {
		_, err := VersionOf(name)
		assert.ErrorIs(t, err, ErrInvalidRuntimeName, "name %q", name)
	}
}

func TestIsLTS(t *testing.T) {
	for _, v := range []int{8, 11, 17, 21, 25} {
		assert.True(t, IsLTS(v), "%d", v)
	}
	for _, v := range []int{9, 10, 12, 16, 18, 22, 23} {
		assert.False(t, IsLTS(v), "%d", v)
	}
}
