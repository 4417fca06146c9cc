package shortcode

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_NewCode(t *testing.T) {
	gen, err := NewGenerator(Base36, 6)
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		code, err := gen.NewCode(context.Background())
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(Base36, c), "unexpected character %q in %q", c, code)
		}
		seen[code] = struct{}{}
	}

	// 36^6 codes; 500 draws colliding more than a handful of times means the source is broken
	assert.Greater(t, len(seen), 490)
}

func TestNewGenerator_Defaults(t *testing.T) {
	gen, err := NewGenerator(Base36, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultLength, gen.Length())

	_, err = NewGenerator("a", 6)
	assert.Error(t, err)
}
