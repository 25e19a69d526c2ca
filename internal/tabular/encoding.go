package tabular

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"slatelink/internal/faults"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decode attempts UTF-8 strict, UTF-8 with BOM stripped, then Latin-1.
// Latin-1 maps every byte to a code point, so the cascade cannot fail on
// real input; the fault exists for the taxonomy's sake.
func decode(data []byte) (string, Encoding, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		rest := data[len(utf8BOM):]
		if utf8.Valid(rest) {
			return string(rest), EncodingUTF8BOM, nil
		}
	} else if utf8.Valid(data) {
		return string(data), EncodingUTF8, nil
	}

	text, err := charmap.ISO8859_1.NewDecoder().String(string(data))
	if err != nil {
		return "", "", faults.Wrap(faults.ErrEncodingExhausted, "tabular", "decode", "no decode attempt succeeded", err)
	}
	return text, EncodingLatin1, nil
}
