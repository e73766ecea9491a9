package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdditionalMarker(t *testing.T) {
	plain := Bill{MobileLastDigit: "1234"}
	assert.False(t, plain.IsAdditional())
	assert.Equal(t, "1234", plain.BaseNumber())

	additional := Bill{MobileLastDigit: "1234" + AdditionalMarker}
	assert.True(t, additional.IsAdditional())
	assert.Equal(t, "1234", additional.BaseNumber())

	// Sloppy whitespace around the marker still resolves to the base number.
	messy := Bill{MobileLastDigit: "1234  (Additional)  "}
	assert.True(t, messy.IsAdditional())
	assert.Equal(t, "1234", messy.BaseNumber())
}
