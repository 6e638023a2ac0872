package push

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}

	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, Chunk(ids, 2))
	assert.Equal(t, [][]string{ids}, Chunk(ids, 5))
	assert.Equal(t, [][]string{ids}, Chunk(ids, 0))
	assert.Empty(t, Chunk(nil, 3))
}

func TestCodePermanent(t *testing.T) {
	assert.True(t, CodeDeviceNotRegistered.Permanent())
	assert.True(t, CodeInvalidToken.Permanent())

	for _, c := range []Code{CodeOK, CodeInvalidBundleID, CodeKeyFileMissing, CodeAPNSError, CodeExpoError} {
		assert.False(t, c.Permanent(), string(c))
	}
}
