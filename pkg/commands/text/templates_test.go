package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLongDesc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "simple string",
			input:    "This is a description.",
			expected: "This is a description.",
		},
		{
			name: "indented multi-line string",
			input: `
				Applies a fixture plan.

				The fixture is always cleaned up.
			`,
			expected: "Applies a fixture plan.\n\nThe fixture is always cleaned up.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, LongDesc(tt.input))
		})
	}
}

func TestExamples(t *testing.T) {
	t.Parallel()

	got := Examples(`
		# Apply a plan
		opfixture fixture apply -f plan.yaml
	`)
	assert.Equal(t, "  # Apply a plan\n  opfixture fixture apply -f plan.yaml", got)
	assert.Empty(t, Examples("  "))
}
