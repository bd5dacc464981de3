package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatchID(t *testing.T) {
	id, err := NewMatchID()
	require.NoError(t, err)
	assert.Len(t, id, 48)
	assert.Regexp(t, "^[0-9a-f]{48}$", id)

	other, err := NewMatchID()
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}
