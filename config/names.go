package config

import (
	"strings"
	"unicode"
)

const badFileName = "_bad_file_name_"

// CleanFileName makes output file name out of stylesheet name: characters
// the platform does not allow are removed and leading dots are dropped so
// result is never hidden.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if unicode.IsControl(sym) || strings.ContainsRune(forbiddenNameChars, sym) {
			return -1
		}
		return sym
	}, in)
	out = platformName(strings.TrimLeft(out, "."))
	if len(out) == 0 {
		return badFileName
	}
	return out
}
