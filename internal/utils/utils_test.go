package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOrZero(t *testing.T) {
	assert.Equal(t, "", OrZero[string](nil))
	assert.Equal(t, 3, OrZero(Ptr(3)))
}

func TestIDs(t *testing.T) {
	_, err := uuid.Parse(NewID())
	assert.NoError(t, err)
	assert.NotEqual(t, NewID(), NewID())

	next := SequentialIDs("m")
	assert.Equal(t, "m-1", next())
	assert.Equal(t, "m-2", next())
}
