//go:build windows

package config

import (
	"os"
	"strings"

	"golang.org/x/sys/windows"
	"golang.org/x/term"
)

const forbiddenNameChars = `<>":/\|?*;`

var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// platformName drops trailing dots and spaces Explorer silently strips and
// guards device names: "con" would otherwise open console instead of a file.
func platformName(name string) string {
	name = strings.TrimRight(name, ". ")
	stem, _, _ := strings.Cut(name, ".")
	if _, ok := reservedNames[strings.ToUpper(stem)]; ok {
		return "_" + name
	}
	return name
}

// EnableColorOutput turns on VT100 sequence processing for console stream.
// It is only available starting with Windows 10.
func EnableColorOutput(stream *os.File) bool {
	if windows.RtlGetVersion().MajorVersion < 10 || !term.IsTerminal(int(stream.Fd())) {
		return false
	}
	h := windows.Handle(stream.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return false
	}
	return windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING) == nil
}
