package sms

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// EncodeUCS2 converts text to big-endian UCS-2 (UTF-16BE) bytes.
func EncodeUCS2(text string) []byte {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	es, _, _ := transform.Bytes(enc, []byte(text))
	return es
}

// DecodeUCS2 converts big-endian UCS-2 bytes back to a string.
func DecodeUCS2(text []byte) string {
	dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	es, _, _ := transform.Bytes(dec, text)
	return string(es)
}

// Decode converts inbound message content according to its MsgFmt.
func Decode(code uint8, text []byte) string {
	switch code {
	case 8: // UCS2
		return DecodeUCS2(text)
	default:
		return string(text)
	}
}
