package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionNotEmptyAndPrefixed(t *testing.T) {
	s := Get()
	assert.NotEmpty(t, s)
	assert.Equal(t, byte('v'), s[0])
	assert.NotContains(t, s, "\n")
}
