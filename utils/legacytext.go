package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var ErrTextDecode = errors.New("text decode error")

// DefaultTextEncoding is the Western code page embedded names are stored in.
var DefaultTextEncoding encoding.Encoding = charmap.Windows1252

var textEncodings = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"windows-1250": charmap.Windows1250,
	"cp1250":       charmap.Windows1250,
	"shift-jis":    japanese.ShiftJIS,
	"sjis":         japanese.ShiftJIS,
	"euc-kr":       korean.EUCKR,
	"cp949":        korean.EUCKR,
	"gbk":          simplifiedchinese.GBK,
}

// LookupTextEncoding resolves a config name to a code page. Empty selects the default.
func LookupTextEncoding(name string) (encoding.Encoding, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultTextEncoding, nil
	}
	enc, ok := textEncodings[name]
	if !ok {
		return nil, fmt.Errorf("unsupported text encoding: %s", name)
	}
	return enc, nil
}

// DecodeLegacyText decodes a fixed-width field up to its first NUL byte.
// None of the supported code pages can encode U+FFFD, so a replacement rune
// in the output means the input was not valid for the code page.
func DecodeLegacyText(field []byte, enc encoding.Encoding) (string, error) {
	if enc == nil {
		enc = DefaultTextEncoding
	}
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	decoded, err := enc.NewDecoder().Bytes(field)
	if err != nil {
		return "", fmt.Errorf("failed to decode %q: %v: %w", field, err, ErrTextDecode)
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", fmt.Errorf("invalid byte sequence %q: %w", field, ErrTextDecode)
	}
	return string(decoded), nil
}
