package content

import (
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

const (
	EncodingUTF8    = "UTF-8"
	EncodingUTF16LE = "UTF-16LE"
	EncodingUTF16BE = "UTF-16BE"
)

type bom int

const (
	bomNone bom = iota
	bomUTF8
	bomUTF16LE
	bomUTF16BE
)

func detectBOM(b []byte) bom {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return bomUTF8
	}
	if len(b) >= 2 {
		switch {
		case b[0] == 0xFF && b[1] == 0xFE:
			return bomUTF16LE
		case b[0] == 0xFE && b[1] == 0xFF:
			return bomUTF16BE
		}
	}
	return bomNone
}

// DetectEncoding returns a best-guess encoding name for b. Byte order marks
// and valid UTF-8 are recognised directly; other input goes through a single
// chardet pass. It always returns a name, falling back to UTF-8.
func DetectEncoding(b []byte) string {
	switch detectBOM(b) {
	case bomUTF8:
		return EncodingUTF8
	case bomUTF16LE:
		return EncodingUTF16LE
	case bomUTF16BE:
		return EncodingUTF16BE
	}
	if len(b) == 0 || validUTF8Prefix(b) {
		return EncodingUTF8
	}

	res, err := chardet.NewTextDetector().DetectBest(b)
	if err != nil || res == nil || res.Charset == "" {
		return EncodingUTF8
	}
	return normalizeCharset(res.Charset)
}

// normalizeCharset maps chardet's charset labels onto names the x/text
// indexes resolve.
func normalizeCharset(name string) string {
	switch strings.ToUpper(name) {
	case "GB-18030":
		return "GB18030"
	case "ISO-8859-8-I":
		return "ISO-8859-8"
	}
	return name
}

// Decode converts b from the named encoding to UTF-8. It never fails:
// unknown encodings are treated as UTF-8 and undecodable sequences become
// U+FFFD. A leading byte order mark is dropped.
func Decode(b []byte, name string) string {
	if len(b) == 0 {
		return ""
	}
	enc := lookupEncoding(name)
	if enc == nil {
		return decodeUTF8Lossy(b)
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return decodeUTF8Lossy(b)
	}
	return strings.ToValidUTF8(string(out), string(utf8.RuneError))
}

// DecodeAuto detects the encoding of the whole buffer and decodes it.
func DecodeAuto(b []byte) (text string, encodingName string) {
	encodingName = DetectEncoding(b)
	return Decode(b, encodingName), encodingName
}

func lookupEncoding(name string) encoding.Encoding {
	switch strings.ToUpper(name) {
	case "", EncodingUTF8, "UTF8", "ASCII", "US-ASCII":
		return nil
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	}
	if enc, err := htmlindex.Get(name); err == nil && enc != nil {
		return enc
	}
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc
	}
	return nil
}

func decodeUTF8Lossy(b []byte) string {
	if detectBOM(b) == bomUTF8 {
		b = b[3:]
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
