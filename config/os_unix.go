//go:build !windows

package config

import (
	"os"

	"golang.org/x/term"
)

// path and PATH list separators
const forbiddenNameChars = "/:"

func platformName(name string) string {
	return name
}

// EnableColorOutput reports if stream is a terminal.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
