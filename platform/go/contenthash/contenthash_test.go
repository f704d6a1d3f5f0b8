package contenthash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigestDeterministic(t *testing.T) {
	a := Digest("great product, would buy again", 3)
	b := Digest("great product, would buy again", 3)
	require.Equal(t, a, b)
	require.Len(t, a, 64)
}

func TestDigestContentDrift(t *testing.T) {
	base := Digest("review one\nreview two", 2)
	require.NotEqual(t, base, Digest("review one\nreview three", 2))
}

func TestDigestCountDrift(t *testing.T) {
	// Same concatenated text, different item count, distinct digest.
	require.NotEqual(t, Digest("abc", 1), Digest("abc", 2))
}

func TestDigestEmptyContent(t *testing.T) {
	require.Len(t, Digest("", 0), 64)
}
