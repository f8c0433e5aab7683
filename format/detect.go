package format

import (
	"bytes"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

// detectUTF looks for BOM at the start of the buffer. UTF-32 LE BOM starts
// with UTF-16 LE one so it is checked first.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case bytes.HasPrefix(buf, []byte{0xEF, 0xBB, 0xBF}):
		return encUTF8
	case bytes.HasPrefix(buf, []byte{0x00, 0x00, 0xFE, 0xFF}):
		return encUTF32BigEndian
	case bytes.HasPrefix(buf, []byte{0xFF, 0xFE, 0x00, 0x00}):
		return encUTF32LittleEndian
	case bytes.HasPrefix(buf, []byte{0xFE, 0xFF}):
		return encUTF16BigEndian
	case bytes.HasPrefix(buf, []byte{0xFF, 0xFE}):
		return encUTF16LittleEndian
	}
	return encUnknown
}

// selectReader returns reader producing UTF-8 without BOM. Input without BOM
// is converted from code page cp when it is specified, otherwise it is
// expected to be UTF-8 already.
func selectReader(r io.Reader, enc srcEncoding, cp encoding.Encoding) io.Reader {
	switch enc {
	case encUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF16LittleEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF32BigEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder())
	case encUTF32LittleEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder())
	}
	if cp != nil {
		return transform.NewReader(r, cp.NewDecoder())
	}
	return r
}

func decode(data []byte, cp encoding.Encoding) (string, error) {
	enc := detectUTF(data)
	if enc == encUnknown && cp == nil {
		return string(data), nil
	}
	out, err := io.ReadAll(selectReader(bytes.NewReader(data), enc, cp))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// hasExt checks file extension against list, case is ignored.
func hasExt(name string, exts []string) bool {
	ext := filepath.Ext(name)
	return slices.ContainsFunc(exts, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}
