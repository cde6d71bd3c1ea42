// Package text provides text formatting utilities for CLI commands.
package text

import (
	"strings"
)

// Indentation is the standard indentation for CLI help text.
const Indentation = `  `

// LongDesc normalizes a command's long description: surrounding blank lines
// are dropped and every line is dedented.
func LongDesc(s string) string {
	return strings.Join(lines(s), "\n")
}

// Examples normalizes a command's examples: every line is dedented, then
// indented by Indentation.
func Examples(s string) string {
	ls := lines(s)
	for i, l := range ls {
		if l != "" {
			ls[i] = Indentation + l
		}
	}

	return strings.Join(ls, "\n")
}

func lines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	ls := strings.Split(s, "\n")
	for i, l := range ls {
		ls[i] = strings.TrimSpace(l)
	}

	return ls
}
