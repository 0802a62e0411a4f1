package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePatternType(t *testing.T) {
	for _, pt := range PatternTypes {
		parsed, err := ParsePatternType(string(pt))
		require.NoError(t, err)
		assert.Equal(t, pt, parsed)
	}

	_, err := ParsePatternType("opportunity")
	assert.ErrorIs(t, err, ErrDataIntegrity)

	_, err = ParsePatternType("")
	assert.Error(t, err)
}

func TestPattern_Validate(t *testing.T) {
	valid := Pattern{Type: PatternRisk, Text: "vendor lock-in", Confidence: 0.8}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Confidence = 1.2
	assert.ErrorIs(t, bad.Validate(), ErrDataIntegrity)

	bad = valid
	bad.Text = ""
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)

	bad = valid
	bad.Type = "theme"
	assert.Error(t, bad.Validate())
}
