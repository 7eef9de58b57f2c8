package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOTPCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateOTPCode()

		assert.NoError(t, err)
		assert.Len(t, code, 6)
		assert.NotEqual(t, byte('0'), code[0], "code must not carry a leading zero")
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "01012345678", NormalizePhone("010-1234-5678"))
	assert.Equal(t, "01012345678", NormalizePhone("010 1234 5678"))
	assert.Equal(t, "01012345678", NormalizePhone("01012345678"))
	assert.Equal(t, "821012345678", NormalizePhone("+82 10-1234-5678"))
	assert.Equal(t, "", NormalizePhone("abc"))
}
