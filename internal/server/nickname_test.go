package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateNickname(t *testing.T) {
	for i := 0; i < 100; i++ {
		name := GenerateNickname()
		assert.NotEmpty(t, name)
	}
}
