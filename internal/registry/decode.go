package registry

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncodings is the candidate order used when none is configured.
var DefaultEncodings = []string{"utf-8", "windows-1251", "koi8-r"}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decoded is the result of decoding raw registry bytes. Warning is non-nil
// when no candidate matched and the text was decoded with replacement.
type Decoded struct {
	Text     string
	Encoding string
	Warning  *DecodeFallbackWarning
}

// Fallback reports whether the best-effort path was taken.
func (d Decoded) Fallback() bool {
	return d.Warning != nil
}

// ValidateEncodings checks that every candidate name is a known encoding label.
func ValidateEncodings(names []string) error {
	for _, name := range names {
		if _, err := htmlindex.Get(name); err != nil {
			return fmt.Errorf("unknown encoding %q", name)
		}
	}
	return nil
}

// Decode converts raw bytes to text by trying each candidate encoding in
// order. A byte-order mark overrides the candidate list. Decoding never fails
// because of the input bytes; the only error is an unknown candidate name.
func Decode(data []byte, candidates []string) (Decoded, error) {
	if len(candidates) == 0 {
		candidates = DefaultEncodings
	}
	if err := ValidateEncodings(candidates); err != nil {
		return Decoded{}, err
	}

	switch {
	case bytes.HasPrefix(data, bomUTF8) && utf8.Valid(data[len(bomUTF8):]):
		return Decoded{Text: string(data[len(bomUTF8):]), Encoding: "utf-8"}, nil
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		enc := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
		if text, ok := tryDecode(enc, data); ok {
			return Decoded{Text: text, Encoding: "utf-16"}, nil
		}
	}

	tried := make([]string, 0, len(candidates))
	for _, name := range candidates {
		enc, _ := htmlindex.Get(name)
		canonical, err := htmlindex.Name(enc)
		if err != nil {
			canonical = strings.ToLower(name)
		}
		tried = append(tried, canonical)

		if enc == unicode.UTF8 {
			if utf8.Valid(data) {
				return Decoded{Text: string(data), Encoding: canonical}, nil
			}
			continue
		}
		if text, ok := tryDecode(enc, data); ok {
			return Decoded{Text: text, Encoding: canonical}, nil
		}
	}

	return Decoded{
		Text:     strings.ToValidUTF8(string(data), "\uFFFD"),
		Encoding: "utf-8",
		Warning:  &DecodeFallbackWarning{Tried: tried},
	}, nil
}

// tryDecode decodes data strictly: a transform error or a replacement
// character in the output counts as a failed attempt.
func tryDecode(enc encoding.Encoding, data []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}
