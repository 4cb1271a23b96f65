package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher(t *testing.T) {
	h := NewHasher()

	hash, err := h.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.NoError(t, h.Compare(hash, "s3cret!"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), ErrPasswordMismatch)

	err = h.Compare("not-a-hash", "s3cret!")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}
