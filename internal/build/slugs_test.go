package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugKeyFoldsCaseAndComposition(t *testing.T) {
	assert.Equal(t, slugKey("Hello"), slugKey("hello"))
	// "café" precomposed and with a combining acute accent
	assert.Equal(t, slugKey("caf\u00e9"), slugKey("cafe\u0301"))
	assert.NotEqual(t, slugKey("hello"), slugKey("hello-2"))
}

func TestSlugRegistryClaim(t *testing.T) {
	reg := newSlugRegistry()

	_, taken := reg.claim("post", 0)
	assert.False(t, taken)

	prev, taken := reg.claim("Post", 3)
	assert.True(t, taken)
	assert.Equal(t, 0, prev)

	prev, taken = reg.claim("POST", 5)
	assert.True(t, taken)
	assert.Equal(t, 3, prev, "the latest claimant owns the slug")
}
