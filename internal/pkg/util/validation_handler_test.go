package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	UserID uint64 `validate:"required"`
	Text   string `validate:"max=5"`
}

func TestValidateDTO(t *testing.T) {
	assert.NoError(t, ValidateDTO(&sample{UserID: 1, Text: "hi"}))

	err := ValidateDTO(&sample{Text: "hi"})
	assert.EqualError(t, err, "field [UserID] failed rule [required]")

	err = ValidateDTO(&sample{UserID: 1, Text: "too long"})
	assert.EqualError(t, err, "field [Text] failed rule [max]")
}

func TestParseUint64(t *testing.T) {
	id, ok := ParseUint64("42")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)

	for _, bad := range []string{"", "0", "-1", "12abc"} {
		_, ok = ParseUint64(bad)
		assert.False(t, ok, bad)
	}
}
