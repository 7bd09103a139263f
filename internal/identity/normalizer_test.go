package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKnownDrivers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"VERSTAPPEN", "Max Verstappen"},
		{"Max Verstappen", "Max Verstappen"},
		{"1. Max Verstappen", "Max Verstappen"},
		{"12) hamilton", "Lewis Hamilton"},
		{"  leclerc  ", "Charles Leclerc"},
		{"C. Sainz", "Carlos Sainz"},
		{"ZHOU Guanyu", "Zhou Guanyu"},
		{"Oliver Bearman (HAA)", "Oliver Bearman"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeResolvesMultiFragmentLabelsConsistently(t *testing.T) {
	// A garbled label mentioning two roster drivers must resolve to the
	// leftmost one, every single call.
	for i := 0; i < 500; i++ {
		assert.Equal(t, "Max Verstappen", Normalize("Verstappen / Hamilton shared car"))
		assert.Equal(t, "Lewis Hamilton", Normalize("Hamilton leads Verstappen"))
	}
}

func TestNormalizeUnknownFallsBackToTitleCase(t *testing.T) {
	assert.Equal(t, "Jos Doe", Normalize("JOS DOE"))
	assert.Equal(t, "Rookie Driver", Normalize("3. rookie driver"))
}

func TestNormalizeIsTotal(t *testing.T) {
	// pathological inputs must not panic and must be deterministic
	for _, input := range []string{"", "   ", "42", "7.", "\t\n"} {
		first := Normalize(input)
		second := Normalize(input)
		assert.Equal(t, first, second, "input %q", input)
	}
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("norris"))
	assert.True(t, Known("4. Lando NORRIS"))
	assert.False(t, Known("Jos Doe"))
}

func TestRosterContainsCanonicalNames(t *testing.T) {
	roster := Roster()
	assert.Contains(t, roster, "Max Verstappen")
	assert.Contains(t, roster, "Zhou Guanyu")
	assert.GreaterOrEqual(t, len(roster), 20)
}
