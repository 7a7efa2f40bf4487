package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZero(t *testing.T) {
	t.Run("zero key sized slice", func(t *testing.T) {
		b := make([]byte, KeySize)
		for i := range b {
			b[i] = byte(i + 1)
		}
		Zero(b)
		assert.Equal(t, make([]byte, KeySize), b)
	})

	t.Run("zero nil slice", func(t *testing.T) {
		var b []byte
		assert.NotPanics(t, func() { Zero(b) })
	})
}
