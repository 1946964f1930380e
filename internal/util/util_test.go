package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACSHA256Hex(t *testing.T) {
	a := HMACSHA256Hex("secret", "return:42")
	b := HMACSHA256Hex("secret", "return:42")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, HMACSHA256Hex("other", "return:42"))
	assert.NotEqual(t, a, HMACSHA256Hex("secret", "return:43"))
}

func TestConstantTimeEqualHex(t *testing.T) {
	mac := HMACSHA256Hex("secret", "msg")
	assert.True(t, ConstantTimeEqualHex(mac, mac))
	assert.False(t, ConstantTimeEqualHex(mac, HMACSHA256Hex("secret", "other")))
	assert.False(t, ConstantTimeEqualHex("zz-not-hex", mac))
	assert.False(t, ConstantTimeEqualHex(mac, ""))
}
