package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "removes duplicates preserving order",
			input:    []string{"MD", "PhD", "MD"},
			expected: []string{"MD", "PhD"},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  MD ", "\tPhD\n"},
			expected: []string{"MD", "PhD"},
		},
		{
			name:     "drops empty and whitespace-only entries",
			input:    []string{"", "  ", "MD"},
			expected: []string{"MD"},
		},
		{
			name:     "nil stays nil",
			input:    nil,
			expected: nil,
		},
		{
			name:     "trimmed values collapse into one",
			input:    []string{" MD", "MD "},
			expected: []string{"MD"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	assert.Equal(t,
		[]string{"a12345", "b99"},
		DedupeAndTrimLower([]string{"  A12345 ", "a12345", "B99"}),
	)
}
