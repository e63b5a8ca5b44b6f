package place

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenInfoIsEmpty(t *testing.T) {
	assert.True(t, TokenInfo{}.IsEmpty())

	withNames := TokenInfo{Names: StringPtr("1 2 3")}
	assert.False(t, withNames.IsEmpty())

	withAddr := TokenInfo{Addr: map[string][2]string{"suburb": {"4", "5"}}}
	assert.False(t, withAddr.IsEmpty())
}

func TestStringPtr(t *testing.T) {
	p := StringPtr("hello")
	if assert.NotNil(t, p) {
		assert.Equal(t, "hello", *p)
	}
}
